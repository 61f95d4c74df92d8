//go:build !windows

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{
		Dir:     t.TempDir(),
		Timeout: 10 * time.Second,
	}
}

func TestRun_Success(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Stdout != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
	if res.Duration < 0 {
		t.Errorf("Duration = %v, want >= 0", res.Duration)
	}
}

func TestRun_TrimsStreams(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"bash", "-c", "printf '\\n  out  \\n'; printf '\\t err \\n' >&2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "out" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out")
	}
	if res.Stderr != "err" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"bash", "-c", "echo nope >&2; exit 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Stderr != "nope" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "nope")
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(context.Background(), []string{"nonexistent-binary-xyz-123"})
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("err = %v, want *LaunchError", err)
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	r := newTestRunner(t)
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty argv")
	}
}

func TestRun_Timeout(t *testing.T) {
	r := newTestRunner(t)
	r.Timeout = 200 * time.Millisecond
	r.WaitDelay = time.Second

	pidFile := filepath.Join(r.Dir, "pid")
	start := time.Now()
	_, err := r.Run(context.Background(), []string{"bash", "-c", "echo $$ > " + pidFile + "; sleep 30"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error = %q, want to mention timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %v, want the process terminated promptly", elapsed)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("reading pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parsing pid: %v", err)
	}
	if err := syscall.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
		t.Errorf("process %d still exists after timeout (kill err = %v)", pid, err)
	}
}

func TestRun_ParentCancelled(t *testing.T) {
	r := newTestRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, []string{"sleep", "30"})
	if err == nil {
		t.Fatal("expected error when parent context is done")
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, parent cancellation must not be reported as the runner timeout", err)
	}
}

func TestRun_OutputCap(t *testing.T) {
	r := newTestRunner(t)
	r.MaxCapture = 100

	res, err := r.Run(context.Background(), []string{"bash", "-c", "head -c 200 /dev/zero | tr '\\0' 'x'"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.StdoutTruncated {
		t.Error("StdoutTruncated = false, want true")
	}
	if len(res.Stdout) > r.MaxCapture {
		t.Errorf("len(Stdout) = %d, want <= %d", len(res.Stdout), r.MaxCapture)
	}
}

func TestRun_UnlimitedCapture(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), []string{"bash", "-c", "head -c 100000 /dev/zero | tr '\\0' 'x'"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Truncated() {
		t.Error("Truncated() = true, want false with no cap")
	}
	if len(res.Stdout) != 100000 {
		t.Errorf("len(Stdout) = %d, want 100000", len(res.Stdout))
	}
}

func TestRun_OutputExactlyAtCapIsNotTruncated(t *testing.T) {
	r := newTestRunner(t)
	r.MaxCapture = 5

	res, err := r.Run(context.Background(), []string{"printf", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Truncated() {
		t.Error("Truncated() = true, want false when output fits the cap exactly")
	}
	if res.Stdout != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
}

func TestRun_OutputCapKeepsWholeRunes(t *testing.T) {
	r := newTestRunner(t)
	r.MaxCapture = 4

	// "aé" is 3 bytes, "é" again straddles the 4-byte cap.
	res, err := r.Run(context.Background(), []string{"printf", "a\u00e9\u00e9b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.StdoutTruncated {
		t.Error("StdoutTruncated = false, want true")
	}
	if res.Stdout != "a\u00e9" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "a\u00e9")
	}
}

func TestRun_KilledBySignalReportsMinusOne(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), []string{"bash", "-c", "echo PASS; kill -KILL $$"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for a signal-terminated process", res.ExitCode)
	}
}
