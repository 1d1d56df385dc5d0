// Package observability provides structured logging helpers that carry
// lifecycle run identity (transaction id, step, hook) through context.
package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context information.
type LogContext struct {
	TransactionID string
	Step          string
	Hook          string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithTransactionID adds a transaction id to the context.
func WithTransactionID(ctx context.Context, txID string) context.Context {
	lc := extractLogContext(ctx)
	lc.TransactionID = txID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStep adds a lifecycle step name to the context.
func WithStep(ctx context.Context, step string) context.Context {
	lc := extractLogContext(ctx)
	lc.Step = step
	return context.WithValue(ctx, logContextKey, lc)
}

// WithHook adds a hook friendly name to the context.
func WithHook(ctx context.Context, hook string) context.Context {
	lc := extractLogContext(ctx)
	lc.Hook = hook
	return context.WithValue(ctx, logContextKey, lc)
}

// extractLogContext retrieves or creates a LogContext from the context.
func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// getLogAttrs returns slog attributes from the context's LogContext.
func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.TransactionID != "" {
		attrs = append(attrs, slog.String("tx.id", lc.TransactionID))
	}
	if lc.Step != "" {
		attrs = append(attrs, slog.String("step", lc.Step))
	}
	if lc.Hook != "" {
		attrs = append(attrs, slog.String("hook", lc.Hook))
	}

	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelInfo, msg, allAttrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelWarn, msg, allAttrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelError, msg, allAttrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	allAttrs := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, slog.LevelDebug, msg, allAttrs...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
