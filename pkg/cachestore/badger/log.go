package badger

import (
	"fmt"
	"strings"

	"github.com/marmos91/offlinecache/internal/logger"
)

// badgerLogger routes BadgerDB's internal logging through the daemon logger.
// Badger is chatty at INFO, so its info messages are demoted to DEBUG.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error(trim(format, args), logger.KeySource, "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn(trim(format, args), logger.KeySource, "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug(trim(format, args), logger.KeySource, "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug(trim(format, args), logger.KeySource, "badger")
}

func trim(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
