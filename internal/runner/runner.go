// Package runner launches external processes with a hard time budget
// and captures their output streams.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrTimeout is returned when a process outlives the runner's timeout.
var ErrTimeout = errors.New("execution timeout")

// LaunchError is returned when a process could not be started.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start process %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// DefaultWaitDelay is how long a process group gets to exit after the
// termination signal before it is killed outright.
const DefaultWaitDelay = 5 * time.Second

// Runner executes commands with a timeout and an optional output cap.
type Runner struct {
	Dir        string        // working directory; empty inherits the caller's
	Timeout    time.Duration // zero means no timeout
	MaxCapture int           // bytes per stream; zero means unlimited. A memory bound, not a display limit.
	WaitDelay  time.Duration // grace period after SIGTERM; zero uses DefaultWaitDelay
}

// Run executes argv. The first element is the binary name (resolved via
// PATH), and the rest are arguments. A non-zero exit code is not an error.
func (r *Runner) Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	configureProcessGroup(cmd)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	outW := &limitWriter{buf: &stdout, limit: r.MaxCapture}
	errW := &limitWriter{buf: &stderr, limit: r.MaxCapture}
	cmd.Stdout = outW
	cmd.Stderr = errW

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Command: argv[0], Err: err}
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if runCtx.Err() != nil {
		killProcessGroup(cmd)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("running %s: %w", argv[0], ctx.Err())
		}
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("waiting for %s: %w", argv[0], waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode:        exitCode,
		Stdout:          outW.String(),
		Stderr:          errW.String(),
		StdoutTruncated: outW.cut,
		StderrTruncated: errW.cut,
		Duration:        elapsed,
	}, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
// A limit of zero or less means unlimited.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
	cut   bool // set once anything was discarded
}

// String returns the captured text, trimmed. A cut stream loses any
// incomplete UTF-8 sequence left at the cap.
func (w *limitWriter) String() string {
	b := w.buf.Bytes()
	if w.cut {
		b = trimPartialRune(b)
	}
	return strings.TrimSpace(string(b))
}

// trimPartialRune drops a trailing incomplete UTF-8 sequence.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		if !utf8.RuneStart(b[len(b)-i]) {
			continue
		}
		if !utf8.FullRune(b[len(b)-i:]) {
			return b[:len(b)-i]
		}
		return b
	}
	return b
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return w.buf.Write(p)
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.cut = true
		}
		return len(p), nil // discard
	}
	if len(p) > remaining {
		w.cut = true
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
