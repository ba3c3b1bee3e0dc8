// Package app wires configuration, logging, the remote source and the
// document store into the shelfsync CLI.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/shelfsync/internal/config"
	"github.com/agentstation/shelfsync/internal/sources/shopify"
	"github.com/agentstation/shelfsync/internal/stores/files"
	"github.com/agentstation/shelfsync/internal/stores/memory"
	"github.com/agentstation/shelfsync/internal/stores/postgres"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// App holds the CLI's dependencies. The source and store are created on
// first use so commands like version never need credentials.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config    *config.Config
	flags     Flags
	logger    *zerolog.Logger
	loggerSet bool // supplied by WithLogger, never rebuilt
	out       io.Writer

	mu      sync.Mutex
	source  catalog.Source
	store   documents.Store
	closers []func()
}

// Flags are the global command-line flags.
type Flags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	LogLevel   string
	Format     string
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.config == nil {
		cfg, err := config.Load("")
		if err != nil {
			return nil, err
		}
		app.config = cfg
	}
	if app.logger == nil {
		logger := NewLogger(app.config, app.flags)
		app.logger = &logger
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Source returns the remote catalog, creating the shop client on first use.
func (a *App) Source() (catalog.Source, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.source != nil {
		return a.source, nil
	}
	client, err := shopify.NewClient(shopify.Config{
		Domain:      a.config.ShopDomain,
		AccessToken: a.config.ShopAccessToken,
		APIVersion:  a.config.ShopAPIVersion,
		PageSize:    a.config.PageSize,
		RateLimit:   a.config.RateLimit,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("endpoint", client.Endpoint()).Msg("Using shop")
	a.source = client
	return client, nil
}

// Store returns the document store selected by the configured driver,
// opening it on first use.
func (a *App) Store(ctx context.Context) (documents.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	switch a.config.StoreDriver {
	case config.DriverMemory:
		a.store = memory.New()
	case config.DriverFile:
		s, err := files.New(a.config.StorePath)
		if err != nil {
			return nil, err
		}
		a.store = s
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, a.config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.store = s
	default:
		return nil, errors.NewValidationError("store_driver", a.config.StoreDriver, "must be one of: memory, file, postgres")
	}

	a.logger.Debug().Str("driver", a.config.StoreDriver).Msg("Opened document store")
	return a.store, nil
}

// Shutdown releases resources opened by the app.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for _, closeFn := range closers {
		if err := ctx.Err(); err != nil {
			return err
		}
		closeFn()
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration instead of loading one.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.loggerSet = true
		return nil
	}
}

// WithSource sets the remote catalog (useful for testing).
func WithSource(source catalog.Source) Option {
	return func(a *App) error {
		a.source = source
		return nil
	}
}

// WithStore sets the document store (useful for testing).
func WithStore(store documents.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithOutput sets where command results are written instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
