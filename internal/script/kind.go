package script

import (
	"fmt"
	"strings"
)

// Kind identifies the interpreter family used to run a script.
type Kind string

const (
	Python Kind = "python"
	Bash   Kind = "bash"
	Shell  Kind = "shell"
)

// suffixes maps recognised file suffixes to their kind.
var suffixes = map[string]Kind{
	".py":   Python,
	".sh":   Bash,
	".bash": Bash,
}

// KindOf infers the kind from the name's suffix. Unrecognised suffixes
// default to Python.
func KindOf(name string) Kind {
	for suffix, kind := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return kind
		}
	}
	return Python
}

// Recognised reports whether name carries one of the known script suffixes.
func Recognised(name string) bool {
	for suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ParseKind parses an explicit kind. The empty string is returned as-is
// so callers can fall back to suffix inference.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", Python, Bash, Shell:
		return k, nil
	default:
		return "", fmt.Errorf("unknown script type %q (want python, bash or shell)", s)
	}
}

// Command returns the argv that runs path with the interpreter for kind.
// Bash and Shell both use bash; anything else falls back to python.
func Command(kind Kind, path string) []string {
	switch kind {
	case Bash, Shell:
		return []string{"bash", path}
	default:
		return []string{"python", path}
	}
}
