package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var errProcessDone = errors.New("process already finished")

var (
	stopPidFile string
	stopForce   bool
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Telebox gateway",
	Long: `Stop a running Telebox gateway.

By default sends SIGTERM so in-flight uploads and retrievals drain. Use
--force for immediate termination.

Examples:
  telebox stop
  telebox stop --pid-file /var/run/telebox.pid
  telebox stop --force`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/telebox/telebox.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Force kill instead of graceful shutdown")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := stopPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	if _, err := os.Stat(pidPath); os.IsNotExist(err) {
		return fmt.Errorf("PID file not found: %s\n\nIs the gateway running?", pidPath)
	}
	pid := readPid(pidPath)
	if pid <= 0 {
		return fmt.Errorf("invalid PID file: %s", pidPath)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := stopProcess(process, pid, stopForce); err != nil {
		if errors.Is(err, errProcessDone) {
			fmt.Println("Gateway already stopped")
			_ = os.Remove(pidPath)
			return nil
		}
		return err
	}

	if stopForce {
		_ = os.Remove(pidPath)
		fmt.Println("Gateway terminated")
	} else {
		fmt.Println("Shutdown signal sent. Gateway will stop gracefully.")
	}
	return nil
}
