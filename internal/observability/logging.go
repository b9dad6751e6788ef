// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// SetLogger replaces the global logger, e.g. with the context-aware request logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID is the context key carrying the correlation ID.
const CorrelationID LogContextKey = "correlation_id"

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableGatewayLogging bool
	EnableServiceLogging bool
}

var (
	// Config holds the current logging configuration.
	Config = LoggingConfig{
		EnableGatewayLogging: true,
		EnableServiceLogging: true,
	}
)

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// GatewayLogger provides structured logging for calls to the remote posts API.
type GatewayLogger struct {
	upstream string
	logger   *Logger
}

// NewGatewayLogger creates a new GatewayLogger for the given upstream base URL.
func NewGatewayLogger(upstream string) *GatewayLogger {
	return &GatewayLogger{
		upstream: upstream,
		logger:   GlobalLogger,
	}
}

// LogCall logs a completed upstream call.
func (l *GatewayLogger) LogCall(ctx context.Context, operation, method, path string, status int, latency time.Duration) {
	if !Config.EnableGatewayLogging {
		return
	}
	l.logger.InfoContext(ctx, "upstream call",
		slog.String("upstream", l.upstream),
		slog.String("operation", operation),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("latency", latency),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs a failed upstream call. Every gateway call site reports its own failure here.
func (l *GatewayLogger) LogError(ctx context.Context, operation, method, path string, err error) {
	if !Config.EnableGatewayLogging {
		return
	}
	l.logger.ErrorContext(ctx, "upstream error",
		slog.String("upstream", l.upstream),
		slog.String("operation", operation),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// StructuredLogger provides a general-purpose structured logger.
type StructuredLogger struct{}

// NewStructuredLogger creates a new StructuredLogger instance.
func NewStructuredLogger() *StructuredLogger {
	return &StructuredLogger{}
}

// LogServiceCall logs a service method call.
func (l *StructuredLogger) LogServiceCall(ctx context.Context, service, method string, fields map[string]interface{}) {
	if !Config.EnableServiceLogging {
		return
	}
	attrs := []any{
		slog.String("service", service),
		slog.String("method", method),
		slog.String("type", "service_call"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "service call", attrs...)
}

// LogServiceError logs a failed service operation. The caller's prior state is left untouched.
func (l *StructuredLogger) LogServiceError(ctx context.Context, service, method string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("service", service),
		slog.String("method", method),
		slog.String("type", "service_error"),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.ErrorContext(ctx, "service call failed", attrs...)
}
