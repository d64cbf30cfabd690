package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithField adds a single string field to the logger in the context.
func WithField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithStore tags log lines with the store role (source or destination).
func WithStore(ctx context.Context, store string) context.Context {
	return WithField(ctx, "store", store)
}

// WithList tags log lines with the list being processed.
func WithList(ctx context.Context, list string) context.Context {
	return WithField(ctx, "list", list)
}

// WithPhase tags log lines with the reconciliation phase (lookup, master, write).
func WithPhase(ctx context.Context, phase string) context.Context {
	return WithField(ctx, "phase", phase)
}

// HasLogger reports whether ctx carries its own logger.
func HasLogger(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	logger, ok := ctx.Value(loggerKey).(*zerolog.Logger)
	return ok && logger != nil
}
