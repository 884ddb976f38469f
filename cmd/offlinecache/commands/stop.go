package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	stopPidFile string
	stopForce   bool
	stopWait    time.Duration
)

// errProcessDone reports that the daemon exited before it was signalled.
var errProcessDone = errors.New("process already finished")

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the offline cache daemon",
	Long: `Stop a running offline cache daemon.

The daemon is asked to shut down gracefully: in-flight installs finish and
the cache storage is closed. --force kills it immediately.

Examples:
  # Stop the daemon recorded in the default PID file
  offlinecache stop

  # Wait up to a minute for the daemon to exit
  offlinecache stop --wait 1m

  # Force stop a daemon started with a custom PID file
  offlinecache stop --pid-file /var/run/offlinecache.pid --force`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/offlinecache/offlinecache.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Kill immediately instead of shutting down gracefully")
	stopCmd.Flags().DurationVar(&stopWait, "wait", 0, "Wait up to this long for the daemon to exit (0 returns immediately)")
}

func runStop(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	pidPath := pidFileOrDefault(stopPidFile)

	pid, err := readPID(pidPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("PID file not found: %s\n\nIs the daemon running?", pidPath)
	}
	if err != nil {
		return err
	}

	sig, err := signalStop(pid, stopForce)
	if errors.Is(err, errProcessDone) {
		_, _ = fmt.Fprintln(out, "Daemon already stopped")
		_ = os.Remove(pidPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send %s to process %d: %w", sig, pid, err)
	}
	_, _ = fmt.Fprintf(out, "Sent %s to process %d\n", sig, pid)

	if stopWait <= 0 {
		if !stopForce {
			_, _ = fmt.Fprintln(out, "The daemon will stop gracefully.")
		}
		return nil
	}
	if err := waitForExit(pid, stopWait); err != nil {
		return err
	}
	_ = os.Remove(pidPath)
	_, _ = fmt.Fprintln(out, "Daemon stopped")
	return nil
}

func waitForExit(pid int, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	for processAlive(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("process %d still running after %s", pid, limit)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}
