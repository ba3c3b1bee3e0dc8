package shelfsync

import (
	"context"
	"fmt"

	"github.com/agentstation/shelfsync/internal/stores/dryrun"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/logging"
	"github.com/agentstation/shelfsync/pkg/reconciler"
	"github.com/agentstation/shelfsync/pkg/sync"
)

// Client syncs products and collections from a remote source into a store
type Client interface {
	// SyncProducts reconciles every product. It returns when the sync has
	// finished or aborted; the returned error is also passed to OnError.
	SyncProducts(ctx context.Context, cb Callbacks) error

	// SyncCollections reconciles every collection.
	SyncCollections(ctx context.Context, cb Callbacks) error

	// SyncProduct reconciles the product with the given handle.
	SyncProduct(ctx context.Context, handle string, cb Callbacks) error

	// SyncCollection reconciles the collection with the given handle.
	SyncCollection(ctx context.Context, handle string, cb Callbacks) error

	// Sync reconciles every entity of kind.
	Sync(ctx context.Context, kind catalog.Kind, cb Callbacks) error

	// SyncHandle reconciles the single entity of kind with the given handle.
	SyncHandle(ctx context.Context, kind catalog.Kind, handle string, cb Callbacks) error

	// OnDocumentCreated registers a callback for when documents are created
	OnDocumentCreated(DocumentCreatedHook)

	// OnDocumentUpdated registers a callback for when documents are patched
	OnDocumentUpdated(DocumentUpdatedHook)
}

// client is the internal implementation of the Client interface
type client struct {
	source catalog.Source
	store  documents.Store
	config *config
	hooks  *hooks
}

// New creates a new Client reading from source and writing to store.
func New(source catalog.Source, store documents.Store, opts ...Option) (Client, error) {
	if source == nil {
		return nil, errors.NewValidationError("source", nil, "cannot be nil")
	}
	if store == nil {
		return nil, errors.NewValidationError("store", nil, "cannot be nil")
	}

	c := &client{
		source: source,
		store:  store,
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	for _, opt := range opts {
		if err := opt(c.config); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}
	if err := c.config.sync.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// SyncProducts implements Client.
func (c *client) SyncProducts(ctx context.Context, cb Callbacks) error {
	return c.Sync(ctx, catalog.KindProduct, cb)
}

// SyncCollections implements Client.
func (c *client) SyncCollections(ctx context.Context, cb Callbacks) error {
	return c.Sync(ctx, catalog.KindCollection, cb)
}

// SyncProduct implements Client.
func (c *client) SyncProduct(ctx context.Context, handle string, cb Callbacks) error {
	return c.SyncHandle(ctx, catalog.KindProduct, handle, cb)
}

// SyncCollection implements Client.
func (c *client) SyncCollection(ctx context.Context, handle string, cb Callbacks) error {
	return c.SyncHandle(ctx, catalog.KindCollection, handle, cb)
}

// Sync implements Client.
func (c *client) Sync(ctx context.Context, kind catalog.Kind, cb Callbacks) error {
	ctx, orch, err := c.prepare(ctx)
	if err != nil {
		return reportSetupError(cb, err)
	}
	return orch.Run(ctx, kind, c.hooks.wrap(cb))
}

// SyncHandle implements Client.
func (c *client) SyncHandle(ctx context.Context, kind catalog.Kind, handle string, cb Callbacks) error {
	if handle == "" {
		return reportSetupError(cb, errors.NewValidationError("handle", handle, "cannot be empty"))
	}
	ctx, orch, err := c.prepare(ctx)
	if err != nil {
		return reportSetupError(cb, err)
	}
	return orch.RunOne(ctx, kind, handle, c.hooks.wrap(cb))
}

// OnDocumentCreated implements Client.
func (c *client) OnDocumentCreated(fn DocumentCreatedHook) {
	c.hooks.OnDocumentCreated(fn)
}

// OnDocumentUpdated implements Client.
func (c *client) OnDocumentUpdated(fn DocumentUpdatedHook) {
	c.hooks.OnDocumentUpdated(fn)
}

// prepare builds a fresh orchestrator per call so a dry run's overlay never
// outlives the call that created it.
func (c *client) prepare(ctx context.Context) (context.Context, *sync.Orchestrator, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.config.logger != nil && logging.FromContext(ctx) == logging.Default() {
		ctx = logging.WithLogger(ctx, c.config.logger)
	}

	opts := c.config.sync
	store := c.store
	if opts.DryRun {
		store = dryrun.New(store)
	}

	rec, err := reconciler.New(store, reconciler.WithPacingDelay(c.config.pacingDelay))
	if err != nil {
		return ctx, nil, err
	}
	orch, err := sync.New(c.source, rec,
		sync.WithConcurrency(opts.Concurrency),
		sync.WithTimeout(opts.Timeout),
		sync.WithDryRun(opts.DryRun),
	)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, orch, nil
}

// reportSetupError delivers errors raised before a run starts through the
// same OnError path the run itself uses.
func reportSetupError(cb Callbacks, err error) error {
	if cb != nil {
		cb.OnError(err)
	}
	return err
}
