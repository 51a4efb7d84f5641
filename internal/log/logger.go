// Package log wraps slog with JSON output and per-request correlation ids.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

var CorrelatedIDKey contextKey = "correlation_id"

const LoggerKeyForContext contextKey = "logger"

type Logger struct {
	*slog.Logger
}

// NewLoggerWithJSONOutput writes JSON to stdout at the level named by LOG_LEVEL (default info).
func NewLoggerWithJSONOutput() *Logger {
	return NewLoggerWithWriter(os.Stdout)
}

func NewLoggerWithWriter(w io.Writer) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelFromEnv()})),
	}
}

func levelFromEnv() slog.Level {
	name := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	return &Logger{Logger: l.Logger.With(string(CorrelatedIDKey), GetOrGenerateCorrelationID(ctx))}
}

// ContextWithCorrelationID stores id and a logger tagged with it on ctx.
func ContextWithCorrelationID(ctx context.Context, base *Logger, id string) context.Context {
	ctx = context.WithValue(ctx, CorrelatedIDKey, id)
	return context.WithValue(ctx, LoggerKeyForContext, base.WithCorrelationID(ctx))
}

func GetOrGenerateCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelatedIDKey).(string); ok && id != "" {
		return id
	}
	return GenerateCorrelationID()
}

func GenerateCorrelationID() string {
	return uuid.NewString()
}

// GetLoggerInstanceFromContext returns the logger stored by
// ContextWithCorrelationID, else fallback tagged with ctx's correlation id.
func GetLoggerInstanceFromContext(ctx context.Context, fallback *Logger) *Logger {
	if fallback == nil {
		fallback = NewLoggerWithJSONOutput()
	}
	if ctx == nil {
		return fallback
	}
	if l, ok := ctx.Value(LoggerKeyForContext).(*Logger); ok {
		return l
	}
	return fallback.WithCorrelationID(ctx)
}
