// Package logging carries the request scoped *slog.Logger through contexts so
// handlers and services log with the request id and authenticated principal.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger returns ctx carrying logger. A nil logger leaves ctx as is.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Or resolves the logger for ctx: the request logger first, then fallback,
// then slog.Default.
func Or(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// WithAttrs adds attrs to the logger already stored in ctx. Contexts without a
// logger are returned unchanged.
func WithAttrs(ctx context.Context, attrs ...any) context.Context {
	logger := FromContext(ctx)
	if logger == nil || len(attrs) == 0 {
		return ctx
	}
	return ContextWithLogger(ctx, logger.With(attrs...))
}
