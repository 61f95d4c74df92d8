// Package report holds execution records and the store that keeps them
// in memory and mirrored to durable storage.
package report

import (
	"time"
	"unicode/utf8"

	"github.com/deixis/proctor/internal/script"
)

// Status is the classification of an execution.
type Status string

const (
	Pass  Status = "PASS"
	Fail  Status = "FAIL"
	Error Status = "ERROR"
	// Running is part of the wire vocabulary only. Records are appended
	// once an execution has finished, so a stored record never carries it.
	Running Status = "RUNNING"
)

// Terminal reports whether s is a final classification.
func (s Status) Terminal() bool {
	return s == Pass || s == Fail || s == Error
}

// Record is the persisted outcome of one script execution. Records are
// never modified after creation.
type Record struct {
	ID          string      `json:"id"`
	TestName    string      `json:"testName"`
	Status      Status      `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
	Output      string      `json:"output"`
	ErrorOutput string      `json:"errorOutput,omitempty"`
	Duration    int64       `json:"duration"` // milliseconds
	ScriptType  script.Kind `json:"scriptType"`
}

// TruncationMarker is appended to output cut by Truncate.
const TruncationMarker = "... (truncated)"

// Truncate bounds s to max characters, appending TruncationMarker when
// anything was cut. Text at or below max is returned unchanged.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}
