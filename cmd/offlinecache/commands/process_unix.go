//go:build !windows

package commands

import (
	"errors"
	"os"
	"syscall"
)

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return p.Signal(syscall.Signal(0)) == nil
}

// signalStop sends SIGTERM, or SIGKILL when force is set, and names the
// signal for the caller to report.
func signalStop(pid int, force bool) (string, error) {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	p, err := os.FindProcess(pid)
	if err == nil {
		err = p.Signal(sig)
	}
	if errors.Is(err, os.ErrProcessDone) {
		return sig.String(), errProcessDone
	}
	return sig.String(), err
}
