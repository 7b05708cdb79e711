// Package logging defines the structured-logging interface the rest of the
// server depends on. The shipped implementation wraps slog; anything with
// the same shape can replace it.
package logging

import "context"

// Logger is a context-aware structured logger. Variadic args are key-value
// pairs:
//
//	log.Info(ctx, "listening", "addr", addr)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)

	// Warn is for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger carrying the given key-value pairs on
	// every record.
	With(args ...any) Logger
}
