package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/offlinecache/internal/logger"
	"github.com/marmos91/offlinecache/internal/xdg"
	"github.com/marmos91/offlinecache/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// GetDefaultStateDir holds the PID and daemon log files.
func GetDefaultStateDir() string {
	dir, err := xdg.StateDir("offlinecache")
	if err != nil {
		return filepath.Join(os.TempDir(), "offlinecache")
	}
	return dir
}

// GetDefaultPidFile returns the default PID file path.
func GetDefaultPidFile() string {
	return filepath.Join(GetDefaultStateDir(), "offlinecache.pid")
}

// GetDefaultLogFile returns the default log file path for daemon mode.
func GetDefaultLogFile() string {
	return filepath.Join(GetDefaultStateDir(), "offlinecache.log")
}
