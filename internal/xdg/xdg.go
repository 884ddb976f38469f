// Package xdg resolves per-application directories following the XDG base
// directory layout, with %LOCALAPPDATA% standing in for data and state on
// Windows.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDir returns $XDG_CONFIG_HOME/app, defaulting to ~/.config/app.
func ConfigDir(app string) (string, error) {
	return resolve(app, "XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/app, defaulting to ~/.local/share/app.
func DataDir(app string) (string, error) {
	if dir, ok := localAppData(app); ok {
		return dir, nil
	}
	return resolve(app, "XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns $XDG_STATE_HOME/app, defaulting to ~/.local/state/app.
func StateDir(app string) (string, error) {
	if dir, ok := localAppData(app); ok {
		return dir, nil
	}
	return resolve(app, "XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func resolve(app, env, homeRel string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, app), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, homeRel, app), nil
}

func localAppData(app string) (string, bool) {
	if runtime.GOOS != "windows" {
		return "", false
	}
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		return "", false
	}
	return filepath.Join(base, app), true
}
