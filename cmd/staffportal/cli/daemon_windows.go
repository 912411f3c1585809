//go:build windows

package cli

import (
	"errors"
	"os"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows. Use a service wrapper for long-lived
// deployments.
func setSysProcAttr(cmd *exec.Cmd) {}

// isProcessRunning is approximate on Windows: Signal only supports Kill and
// Interrupt, so anything other than ErrProcessDone counts as alive.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(os.Interrupt)
	return err == nil || !errors.Is(err, os.ErrProcessDone)
}

// stopProcess kills the process; there is no SIGTERM on Windows.
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
