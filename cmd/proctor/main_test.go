//go:build !windows

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deixis/proctor/internal/report"
)

// chdirWorkspace moves into a temp dir holding a tests/ directory with scripts.
func chdirWorkspace(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "tests"), 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range scripts {
		if err := os.WriteFile(filepath.Join(dir, "tests", name), []byte(body), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("RESULTS_FILE_PATH", "")
	t.Chdir(dir)
	return dir
}

func TestRunMain_Pass(t *testing.T) {
	dir := chdirWorkspace(t, map[string]string{"ok.sh": "echo PASS\n"})

	var out bytes.Buffer
	if err := runMain([]string{"-json", "ok.sh"}, &out); err != nil {
		t.Fatalf("runMain: %v", err)
	}
	var rec report.Record
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out.String())
	}
	if rec.Status != report.Pass {
		t.Errorf("Status = %s, want PASS", rec.Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "results.json")); err != nil {
		t.Errorf("results.json not written: %v", err)
	}

	out.Reset()
	if err := resultsMain(nil, &out); err != nil {
		t.Fatalf("resultsMain: %v", err)
	}
	if !strings.Contains(out.String(), rec.ID) {
		t.Errorf("results output missing %s:\n%s", rec.ID, out.String())
	}
}

func TestRunMain_FailExitsNonZero(t *testing.T) {
	chdirWorkspace(t, map[string]string{"bad.sh": "exit 2\n"})

	var out bytes.Buffer
	err := runMain([]string{"bad.sh"}, &out)
	if !errors.Is(err, errNotPassed) {
		t.Fatalf("err = %v, want errNotPassed", err)
	}
	if !strings.HasPrefix(out.String(), "FAIL") {
		t.Errorf("output = %q, want FAIL first", out.String())
	}
}

func TestTestsAndClear(t *testing.T) {
	chdirWorkspace(t, map[string]string{"a.sh": "echo PASS\n", "b.py": ""})

	var out bytes.Buffer
	if err := testsMain(nil, &out); err != nil {
		t.Fatalf("testsMain: %v", err)
	}
	if out.String() != "a.sh\nb.py\n" {
		t.Errorf("tests output = %q", out.String())
	}

	_ = runMain([]string{"a.sh"}, &bytes.Buffer{})
	out.Reset()
	if err := clearMain(nil, &out); err != nil {
		t.Fatalf("clearMain: %v", err)
	}
	out.Reset()
	if err := resultsMain([]string{"-json"}, &out); err != nil {
		t.Fatalf("resultsMain: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("results after clear = %q, want []", out.String())
	}
}

func TestFormatRecordCLI(t *testing.T) {
	rec := report.Record{
		ID:          "abc",
		TestName:    "disk.py",
		Status:      report.Error,
		Timestamp:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		ErrorOutput: "execution timeout after 5m0s",
		Duration:    300000,
		ScriptType:  "python",
	}
	got := formatRecordCLI(rec)
	for _, want := range []string{"ERROR  disk.py (python)  300000ms", "run abc at 2025-01-02T03:04:05Z", "stderr:\nexecution timeout"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
