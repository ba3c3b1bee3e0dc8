// Package sync drives bulk and single-handle catalog syncs: it pages through
// the remote source, fans entities out to a bounded pool of reconcilers and
// reports progress to the caller.
package sync

import (
	"time"

	"github.com/agentstation/shelfsync/pkg/constants"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// Options controls one sync run. Pacing belongs to the reconciler; see
// reconciler.WithPacingDelay.
type Options struct {
	Concurrency int           // Maximum reconciliations in flight
	Timeout     time.Duration // Timeout for the whole run, zero for none
	DryRun      bool          // Report changes without writing them
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		Concurrency: constants.DefaultConcurrency,
		Timeout:     0,
		DryRun:      false,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Concurrency < 1 {
		return &errors.ValidationError{
			Field:   "Concurrency",
			Value:   s.Concurrency,
			Message: "concurrency must be at least 1",
		}
	}
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	return nil
}

// WithConcurrency sets the number of reconciliation workers.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.Concurrency = n
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}
