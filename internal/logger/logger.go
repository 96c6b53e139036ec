package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	InitializeWithWriter(os.Stdout, level, format)
}

// InitializeWithWriter is Initialize with an explicit destination. Unknown
// levels fall back to info and any format other than json is text.
func InitializeWithWriter(w io.Writer, level, format string) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

// ErrorContext logs an error message with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

// WithOrder returns a logger with the order and location attached
func WithOrder(orderID, locationID string) *slog.Logger {
	return Get().With("order_id", orderID, "location_id", locationID)
}

// prefixed puts the fixed attributes of a tracking line ahead of the caller's.
func prefixed(lead []any, args []any) []any {
	return append(lead, args...)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	Get().Debug("→ Method entered", prefixed([]any{"method", methodName, "event", "enter"}, args)...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	Get().Debug("← Method exited", prefixed([]any{"method", methodName, "event", "exit"}, args)...)
}

// ExitMethodWithError logs method exit with error (process tracking)
func ExitMethodWithError(methodName string, err error, args ...any) {
	Get().Error("← Method exited with error", prefixed([]any{"method", methodName, "event", "exit", "error", err}, args)...)
}

// DatabaseCall logs a statement about to be sent to Postgres. query is a
// short description of the tables touched, not the SQL text.
func DatabaseCall(operation, query string, args ...any) {
	Get().Debug("→ Database call", prefixed([]any{"operation", operation, "query", query}, args)...)
}

// DatabaseResult logs the outcome of a DatabaseCall. Failures log at error.
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	attrs := prefixed([]any{"operation", operation, "rows_affected", rowsAffected}, args)
	if err != nil {
		Get().Error("← Database call failed", append(attrs, "error", err)...)
		return
	}
	Get().Debug("← Database call succeeded", attrs...)
}

// ExternalServiceCall logs a request to a third-party API
func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("→ External service call", prefixed([]any{"service", service, "operation", operation}, args)...)
}

// ExternalServiceResult logs the outcome of an ExternalServiceCall
func ExternalServiceResult(service, operation string, err error, args ...any) {
	attrs := prefixed([]any{"service", service, "operation", operation}, args)
	if err != nil {
		Get().Error("← External service call failed", append(attrs, "error", err)...)
		return
	}
	Get().Debug("← External service call succeeded", attrs...)
}

// SecurityEvent logs a security-relevant rejection such as a forged payment callback
func SecurityEvent(ctx context.Context, event string, args ...any) {
	Get().WarnContext(ctx, "Security event", prefixed([]any{"category", "security", "event", event}, args)...)
}

// IntegrityIncident logs a failed compensating action that leaves stored state inconsistent until repaired
func IntegrityIncident(ctx context.Context, incident string, err error, args ...any) {
	Get().ErrorContext(ctx, "Data integrity incident", prefixed([]any{"category", "integrity", "incident", incident, "error", err}, args)...)
}
