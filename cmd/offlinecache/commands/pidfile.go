package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func pidFileOrDefault(path string) string {
	if path == "" {
		return GetDefaultPidFile()
	}
	return path
}

// readPID parses the process id stored at path.
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(text)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID %q in %s", text, path)
	}
	return pid, nil
}

// writePID records the current process id at path.
func writePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// isProcessRunning returns the PID recorded at pidPath when that process is
// still alive.
func isProcessRunning(pidPath string) (int, bool) {
	pid, err := readPID(pidPath)
	if err != nil || !processAlive(pid) {
		return 0, false
	}
	return pid, true
}
