//go:build windows

package commands

import "errors"

// startDaemon is not supported on Windows; run with --foreground under a
// service manager instead.
func startDaemon() error {
	return errors.New("daemon mode is not supported on Windows, use --foreground")
}
