// Package ctxlog carries a *slog.Logger through context.Context so that
// background run workers log with the same handler as the foreground command.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. Contexts without a
// logger get slog.Default(), so library packages stay usable from tests.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// Detach returns a background context that keeps only the logger of ctx.
// Run workers use it so a finished foreground command does not cancel them.
func Detach(ctx context.Context) context.Context {
	return WithLogger(context.Background(), FromContext(ctx))
}
