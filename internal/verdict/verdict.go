// Package verdict derives a terminal status from a finished process.
package verdict

import (
	"strings"

	"github.com/deixis/proctor/internal/report"
)

// Classifier maps a process outcome to a status.
type Classifier interface {
	Classify(stdout, stderr string, exitCode int) report.Status
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(stdout, stderr string, exitCode int) report.Status

func (f ClassifierFunc) Classify(stdout, stderr string, exitCode int) report.Status {
	return f(stdout, stderr, exitCode)
}

// Heuristic classifies by exit code first and then by PASS/FAIL hints in
// stdout. It never returns ERROR; that is reserved for runs that did not
// complete.
type Heuristic struct{}

// Classify applies, in order: non-zero exit fails; stdout mentioning
// "pass" without "fail" passes; stdout mentioning "fail" fails; any
// stderr fails; otherwise the run passes.
func (Heuristic) Classify(stdout, stderr string, exitCode int) report.Status {
	if exitCode != 0 {
		return report.Fail
	}

	out := strings.ToLower(stdout)
	hasPass := strings.Contains(out, "pass")
	hasFail := strings.Contains(out, "fail")
	switch {
	case hasPass && !hasFail:
		return report.Pass
	case hasFail:
		return report.Fail
	}

	if strings.TrimSpace(stderr) != "" {
		return report.Fail
	}
	return report.Pass
}
