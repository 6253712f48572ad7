// Package logging defines the structured logger passed through fintrack.
// SlogLogger adapts log/slog to it.
package logging

import "context"

// Logger takes a message plus alternating key/value args:
//
//	log.Debug(ctx, "request", "method", method, "path", path, "status", status)
//
// The request executor logs wire detail at Debug; services log session
// transitions at Info; cache and broadcast problems that do not fail an
// operation go to Warn.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
