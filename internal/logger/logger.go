// Package logger provides structured logging for the memory engine.
package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

func init() {
	level := slog.LevelInfo
	if os.Getenv("BARNABEE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Debug logs a debug message with optional key-value pairs
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Fatal logs an error message and exits the process
func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}

// With returns a logger with the given attributes attached to every record
func With(args ...any) *slog.Logger {
	return log.With(args...)
}
