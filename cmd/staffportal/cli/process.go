package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "staffportal.pid")
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "staffportal.log")
}

func writePID(pid int) error {
	if err := os.MkdirAll(resolveDataDir(), 0700); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

// detachArgs strips --detach from args so the child runs in the foreground.
func detachArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || a == "-d" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// startDetached re-runs the current command line without --detach in a new
// session, with output appended to the log file. It returns the child PID.
func startDetached() (int, error) {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return 0, fmt.Errorf("server already running (PID %d); run 'staffportal stop' first", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("locate executable: %w", err)
	}
	if err := os.MkdirAll(resolveDataDir(), 0700); err != nil {
		return 0, err
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, detachArgs(os.Args[1:])...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)
	if err := child.Start(); err != nil {
		return 0, fmt.Errorf("start server: %w", err)
	}
	pid := child.Process.Pid
	if err := writePID(pid); err != nil {
		return pid, fmt.Errorf("write PID file: %w", err)
	}
	return pid, child.Process.Release()
}
