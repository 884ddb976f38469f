//go:build windows

package commands

import (
	"errors"
	"os"
)

// processAlive relies on FindProcess opening a handle, which fails once the
// process is gone.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

// signalStop interrupts the daemon, or kills it when force is set.
func signalStop(pid int, force bool) (string, error) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return "", errProcessDone
	}
	name := "interrupt"
	if force {
		name = "kill"
		err = p.Kill()
	} else {
		err = p.Signal(os.Interrupt)
	}
	if errors.Is(err, os.ErrProcessDone) {
		return name, errProcessDone
	}
	return name, err
}
