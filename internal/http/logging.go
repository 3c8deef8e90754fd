package http

import (
	"context"
	"log/slog"

	"github.com/example/hostel-desk/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request scoped logger so request_id and principal
// attributes flow into handler output.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := append([]any{"handler", handlerName, "operation", operation}, attrs...)
	return logging.Or(ctx, fallback).With(pairs...)
}
