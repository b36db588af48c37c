package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-faqmigrate/internal/logging"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// DefaultCommandTimeout bounds a single command execution. A full migration
// run with the largest allowed batch settings fits comfortably.
const DefaultCommandTimeout = 10 * time.Minute

// EnsureContext returns ctx or context.Background when nil.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout applies timeout unless it is zero or negative.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns logger or a no-op logger when nil.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
