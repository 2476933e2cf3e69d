// Package logger provides the structured logging abstraction used across
// aquamon. It wraps log/slog behind a small interface so packages depend on
// the abstraction, not on a concrete handler.
package logger

import (
	"log/slog"
	"time"
)

// LogLevel controls the minimum level emitted by a logger.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a typed key/value pair attached to a log entry.
type Field = slog.Attr

// Logger is the logging interface used throughout the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that includes the given fields on every entry.
	With(fields ...Field) Logger
}

// Field constructors.

func String(key, value string) Field          { return slog.String(key, value) }
func Int(key string, value int) Field         { return slog.Int(key, value) }
func Int64(key string, value int64) Field     { return slog.Int64(key, value) }
func Uint64(key string, value uint64) Field   { return slog.Uint64(key, value) }
func Float64(key string, value float64) Field { return slog.Float64(key, value) }
func Bool(key string, value bool) Field       { return slog.Bool(key, value) }
func Time(key string, value time.Time) Field  { return slog.Time(key, value) }
func Duration(key string, value time.Duration) Field {
	return slog.Duration(key, value)
}

// Error attaches an error value under the conventional "error" key.
// A nil error logs as an empty string rather than panicking.
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
