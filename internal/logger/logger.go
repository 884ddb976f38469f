// Package logger is the process-wide structured logger. It wraps log/slog
// with a colored single-line text format, a JSON format, and *Ctx variants
// that prepend the request fields carried by a LogContext.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config selects the level, format and destination of log output.
type Config struct {
	Level  string // DEBUG, INFO, WARN or ERROR
	Format string // text or json
	Output string // stdout, stderr or a file path
}

// sink is where records go and how they are rendered.
type sink struct {
	w     io.Writer
	json  bool
	color bool
}

var (
	level  = new(slog.LevelVar)
	active atomic.Pointer[slog.Logger]

	// sinkMu serializes sink changes so rebuilds never interleave.
	sinkMu  sync.Mutex
	current = sink{w: os.Stdout, color: isTerminal(os.Stdout.Fd())}
)

func init() {
	rebuild()
}

// rebuild installs a logger for the current sink. Callers hold sinkMu or run
// before any concurrent use.
func rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if current.json {
		h = slog.NewJSONHandler(current.w, opts)
	} else {
		h = NewColorTextHandler(current.w, opts, current.color)
	}
	active.Store(slog.New(h))
}

func updateSink(fn func(*sink)) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	fn(&current)
	rebuild()
}

// ParseLevel maps DEBUG, INFO, WARN or ERROR (any case) to a slog level.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Init applies cfg. Empty fields keep their current setting.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, color, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		updateSink(func(s *sink) { s.w, s.color = w, color })
	}
	SetLevel(cfg.Level)
	SetFormat(cfg.Format)
	return nil
}

func openOutput(dest string) (io.Writer, bool, error) {
	var f *os.File
	switch strings.ToLower(dest) {
	case "stdout":
		f = os.Stdout
	case "stderr":
		f = os.Stderr
	default:
		lf, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, false, fmt.Errorf("open log file %q: %w", dest, err)
		}
		return lf, false, nil
	}
	return f, isTerminal(f.Fd()), nil
}

// InitWithWriter sends output to w. Tests use it to capture logs.
func InitWithWriter(w io.Writer, lvl, format string, color bool) {
	updateSink(func(s *sink) { s.w, s.color = w, color })
	SetLevel(lvl)
	SetFormat(format)
}

// SetLevel changes the minimum level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		level.Set(l)
	}
}

// SetFormat switches between "text" and "json". Anything else is ignored.
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		updateSink(func(s *sink) { s.json = true })
	case "text":
		updateSink(func(s *sink) { s.json = false })
	}
}

func emit(ctx context.Context, l slog.Level, msg string, args []any) {
	if l < level.Level() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	active.Load().Log(ctx, l, msg, appendContextFields(ctx, args)...)
}

// Debug logs msg with alternating key/value args.
func Debug(msg string, args ...any) { emit(context.Background(), slog.LevelDebug, msg, args) }

// Info logs msg with alternating key/value args.
func Info(msg string, args ...any) { emit(context.Background(), slog.LevelInfo, msg, args) }

// Warn logs msg with alternating key/value args.
func Warn(msg string, args ...any) { emit(context.Background(), slog.LevelWarn, msg, args) }

// Error logs msg with alternating key/value args.
func Error(msg string, args ...any) { emit(context.Background(), slog.LevelError, msg, args) }

// DebugCtx is Debug plus the LogContext fields of ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx is Info plus the LogContext fields of ctx.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx is Warn plus the LogContext fields of ctx.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx is Error plus the LogContext fields of ctx.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, args)
}

func appendContextFields(ctx context.Context, args []any) []any {
	fields := FromContext(ctx).fields()
	if len(fields) == 0 {
		return args
	}
	return append(fields, args...)
}

// With returns a logger that adds args to every record.
func With(args ...any) *slog.Logger {
	return active.Load().With(args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
