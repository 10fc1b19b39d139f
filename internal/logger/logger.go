// Package logger provides structured logging with typed fields over log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel controls the minimum level a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// LogLevel. Unknown names default to info.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Field is a typed key/value pair attached to a log record.
type Field = slog.Attr

// String returns a string field.
func String(key, value string) Field { return slog.String(key, value) }

// Int returns an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Int64 returns an int64 field.
func Int64(key string, value int64) Field { return slog.Int64(key, value) }

// Uint64 returns a uint64 field.
func Uint64(key string, value uint64) Field { return slog.Uint64(key, value) }

// Float64 returns a float64 field.
func Float64(key string, value float64) Field { return slog.Float64(key, value) }

// Bool returns a bool field.
func Bool(key string, value bool) Field { return slog.Bool(key, value) }

// Duration returns a duration field.
func Duration(key string, value time.Duration) Field { return slog.Duration(key, value) }

// Time returns a time field.
func Time(key string, value time.Time) Field { return slog.Time(key, value) }

// Any returns a field holding an arbitrary value.
func Any(key string, value any) Field { return slog.Any(key, value) }

// Error returns a field for an error value under the conventional "error" key.
func Error(err error) Field {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Logger is the structured logging interface used across the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that includes the given fields on every record.
	With(fields ...Field) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger writing text records to w at the given
// level. Base fields, if any, are attached to every record.
func NewSlogLogger(w io.Writer, level LogLevel, base []Field) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	l := slog.New(h)
	if len(base) > 0 {
		l = l.With(attrsToArgs(base)...)
	}
	return &slogLogger{l: l}
}

// Default returns a Logger writing to stderr at info level.
func Default() Logger {
	return NewSlogLogger(os.Stderr, LogLevelInfo, nil)
}

// Silent returns a Logger that discards all records. Intended for tests.
func Silent() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, nil)
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.log(slog.LevelDebug, msg, fields) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.log(slog.LevelInfo, msg, fields) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.log(slog.LevelWarn, msg, fields) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.log(slog.LevelError, msg, fields) }

func (s *slogLogger) log(level slog.Level, msg string, fields []Field) {
	s.l.LogAttrs(context.Background(), level, msg, fields...)
}

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(attrsToArgs(fields)...)}
}

func attrsToArgs(fields []Field) []any {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return args
}
