//go:build windows

package commands

import (
	"fmt"
	"os"
)

// isProcessRunning reports the PID in pidPath when the process exists.
// Windows has no signal 0, so a found process counts as running.
func isProcessRunning(pidPath string) (int, bool) {
	pid := readPid(pidPath)
	if pid <= 0 {
		return 0, false
	}
	if _, err := os.FindProcess(pid); err != nil {
		return 0, false
	}
	return pid, true
}

// startDaemon is not supported on Windows.
func startDaemon() error {
	return fmt.Errorf("daemon mode is not supported on Windows, use --foreground")
}

// stopProcess kills the process when force is set and interrupts it
// otherwise.
func stopProcess(process *os.Process, pid int, force bool) error {
	var err error
	if force {
		fmt.Printf("Killing process %d...\n", pid)
		err = process.Kill()
	} else {
		fmt.Printf("Sending interrupt to process %d...\n", pid)
		err = process.Signal(os.Interrupt)
	}
	if err == os.ErrProcessDone {
		return errProcessDone
	}
	if err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}
	return nil
}
