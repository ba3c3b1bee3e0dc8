package shelfsync

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/shelfsync/pkg/constants"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/sync"
)

// config holds the client's settings.
type config struct {
	sync        *sync.Options
	pacingDelay time.Duration
	logger      *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		sync:        sync.Defaults(),
		pacingDelay: constants.DefaultPacingDelay,
	}
}

// Option is a function that configures a Client instance
type Option func(*config) error

// WithConcurrency sets how many reconciliations may run at once during a
// bulk sync.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return errors.NewValidationError("concurrency", n, "must be at least 1")
		}
		c.sync.Apply(sync.WithConcurrency(n))
		return nil
	}
}

// WithPacingDelay sets the fixed delay preceding each document lookup.
func WithPacingDelay(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return errors.NewValidationError("pacing_delay", d, "must be non-negative")
		}
		c.pacingDelay = d
		return nil
	}
}

// WithTimeout bounds each sync call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return errors.NewValidationError("timeout", d, "must be non-negative")
		}
		c.sync.Apply(sync.WithTimeout(d))
		return nil
	}
}

// WithDryRun routes writes to an in-memory overlay instead of the store.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.sync.Apply(sync.WithDryRun(enabled))
		return nil
	}
}

// WithLogger sets the logger attached to every sync call's context when the
// caller's context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
