// Package script resolves test names to script files under a fixed root
// directory and maps them to the interpreter that runs them.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a name does not resolve to an existing file.
	ErrNotFound = errors.New("not found")
	// ErrOutsideRoot is returned when a name resolves outside the root directory.
	ErrOutsideRoot = errors.New("outside tests directory")
)

// Script is a resolved, existing script file.
type Script struct {
	Name string
	Path string
	Kind Kind
}

// Locator finds scripts under Root. It never creates files, only the
// root directory itself.
type Locator struct {
	Root string
}

// Path joins name onto the root and validates that the result stays
// within it.
func (l *Locator) Path(name string) (string, error) {
	path := filepath.Clean(filepath.Join(l.Root, name))
	rel, err := filepath.Rel(filepath.Clean(l.Root), path)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", name, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("test file '%s': %w", name, ErrOutsideRoot)
	}
	return path, nil
}

// Exists reports whether name resolves to a file under the root.
func (l *Locator) Exists(name string) bool {
	path, err := l.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Locate resolves name to a Script. An explicit kind overrides suffix
// inference; pass "" to infer.
func (l *Locator) Locate(name string, kind Kind) (*Script, error) {
	path, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	if !l.Exists(name) {
		return nil, fmt.Errorf("test file '%s' %w", name, ErrNotFound)
	}
	if kind == "" {
		kind = KindOf(name)
	}
	return &Script{Name: name, Path: path, Kind: kind}, nil
}

// EnsureRoot creates the root directory and any missing parents.
// It is safe to call repeatedly.
func (l *Locator) EnsureRoot() error {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("creating tests directory: %w", err)
	}
	return nil
}

// List returns the names of recognised scripts directly under the root,
// sorted by name. The root is created when absent.
func (l *Locator) List() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading tests directory: %w", err)
		}
		if err := l.EnsureRoot(); err != nil {
			return nil, err
		}
		return []string{}, nil
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !Recognised(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
