package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

// RequestIDKey is the context key for request IDs.
const RequestIDKey contextKey = "request_id"

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output io.Writer
}

// Logger wraps zerolog for application logging.
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger. Unknown levels fall back to info, unknown formats to JSON.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	return &Logger{
		logger: zerolog.New(output).Level(level).With().Timestamp().Logger(),
	}
}

// SetGlobalLogger makes logger the target of the zerolog/log package functions.
func SetGlobalLogger(logger *Logger) {
	log.Logger = logger.logger
}

// HTTPRequest logs one served request. 5xx responses log at error level, 4xx at warn.
func (l *Logger) HTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	logger := l.logger
	if id := RequestID(ctx); id != "" {
		logger = logger.With().Str("request_id", id).Logger()
	}

	event := logger.Info()
	switch {
	case status >= 500:
		event = logger.Error()
	case status >= 400:
		event = logger.Warn()
	}

	event.
		Str("method", method).
		Str("path", path).
		Int("status_code", status).
		Dur("duration_ms", duration).
		Msg("HTTP request")
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request ID stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithContext returns the global logger annotated with the request ID from ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	logger := log.With()
	if id := RequestID(ctx); id != "" {
		logger = logger.Str("request_id", id)
	}
	contextLogger := logger.Logger()
	return &contextLogger
}
