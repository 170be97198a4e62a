// Package logger wraps log/slog with a process-wide logger and a runtime
// adjustable level.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log is the global logger instance.
var Log *slog.Logger

// level backs the handler. slog.LevelVar is atomic, so SetLevel is safe
// to call while other goroutines are logging.
var level slog.LevelVar

// Init configures the global logger to write to stderr at the given level.
// Stdout is reserved for per-file progress lines and the run summary.
func Init(levelStr string) {
	InitWriter(os.Stderr, levelStr)
}

// InitWriter is Init with an explicit destination. Tests use it to capture
// output.
func InitWriter(w io.Writer, levelStr string) {
	SetLevel(levelStr)
	Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: &level,
	}))
}

// SetLevel changes the log level at runtime. Valid values: debug, info,
// warn, error. Anything else falls back to info.
func SetLevel(levelStr string) {
	var lvl slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	level.Set(lvl)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	if Log != nil {
		Log.Debug(msg, args...)
	}
}

// Info logs an info message.
func Info(msg string, args ...any) {
	if Log != nil {
		Log.Info(msg, args...)
	}
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	if Log != nil {
		Log.Warn(msg, args...)
	}
}

// Error logs an error message.
func Error(msg string, args ...any) {
	if Log != nil {
		Log.Error(msg, args...)
	}
}
