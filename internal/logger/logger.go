// Package logger builds the slog loggers used by the API server and the
// lunar CLI, and carries request IDs through contexts.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zapponejosh/lunisolar-api/internal/config"
)

type contextKey string

// RequestIDKey holds the request ID set by the API middleware.
const RequestIDKey contextKey = "request_id"

// Service names the process in every server log line.
const Service = "lunisolar-api"

// Setup builds the server logger from configuration and installs it as the
// slog default. Every line carries the environment and calendar zone, since
// cached conversions are only valid for the zone they were made in.
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.LogLevel, cfg.LogFormat).With(
		slog.String("service", Service),
		slog.String("env", cfg.Env),
		slog.String("zone", cfg.CalendarTZ),
	)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w in "json" or text format. The CLI passes
// stderr so command output on stdout can be piped.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID returns the request ID in ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns base tagged with the request ID in ctx. A nil base
// means the slog default.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := RequestID(ctx); id != "" {
		return base.With(slog.String("request_id", id))
	}
	return base
}
