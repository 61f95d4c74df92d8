package runner

import "time"

// Result holds the output of a process that ran to termination.
type Result struct {
	ExitCode        int           // process exit code; -1 when killed by a signal
	Stdout          string        // captured stdout, trimmed
	Stderr          string        // captured stderr, trimmed
	StdoutTruncated bool          // stdout exceeded the capture cap
	StderrTruncated bool          // stderr exceeded the capture cap
	Duration        time.Duration // wall-clock time from launch to exit
}

// Truncated reports whether either stream lost output to the capture cap.
func (r *Result) Truncated() bool {
	return r.StdoutTruncated || r.StderrTruncated
}
