package reconciler

import (
	"context"
	"time"

	"github.com/agentstation/shelfsync/pkg/constants"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// options configures a reconciler.
type options struct {
	pacingDelay time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func defaultOptions() *options {
	return &options{
		pacingDelay: constants.DefaultPacingDelay,
		sleep:       sleepContext,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithPacingDelay sets the fixed delay that precedes every store lookup.
// Zero disables pacing.
func WithPacingDelay(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return &errors.ValidationError{
				Field:   "PacingDelay",
				Value:   d,
				Message: "must be non-negative",
			}
		}
		o.pacingDelay = d
		return nil
	}
}

// WithSleep replaces the pacing sleep, mainly so tests can observe it.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) error {
		if fn == nil {
			return &errors.ValidationError{Field: "sleep", Message: "cannot be nil"}
		}
		o.sleep = fn
		return nil
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
