//go:build windows

package runner

import "os/exec"

// configureProcessGroup keeps the exec default on Windows: the process
// itself is killed when the context is done.
func configureProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {}
