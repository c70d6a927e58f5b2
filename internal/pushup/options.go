package pushup

import (
	"context"

	"github.com/ayusman/repsense/internal/timeutil"
	"github.com/ayusman/repsense/pkg/logger"
	"github.com/ayusman/repsense/pkg/metrics"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for hold times and session duration.
func WithClock(clock timeutil.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics records frame and rep metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithWarmup sets the hook Initialize runs, typically loading a pose model.
func WithWarmup(warmup func(ctx context.Context) error) Option {
	return func(e *Engine) {
		e.warmup = warmup
	}
}
