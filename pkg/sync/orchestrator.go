package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/logging"
	"github.com/agentstation/shelfsync/pkg/paginate"
	"github.com/agentstation/shelfsync/pkg/reconciler"
)

// Reconciler applies one entity to the document store.
type Reconciler interface {
	Reconcile(ctx context.Context, e catalog.Entity) (reconciler.Result, error)
}

// Orchestrator runs syncs of one remote source into one reconciler.
type Orchestrator struct {
	source     catalog.Source
	reconciler Reconciler
	opts       *Options
}

// New creates an Orchestrator. Options are validated up front.
func New(source catalog.Source, rec Reconciler, opts ...Option) (*Orchestrator, error) {
	if source == nil {
		return nil, errors.NewValidationError("source", nil, "cannot be nil")
	}
	if rec == nil {
		return nil, errors.NewValidationError("reconciler", nil, "cannot be nil")
	}
	options := Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{source: source, reconciler: rec, opts: options}, nil
}

// Options returns a copy of the orchestrator's options.
func (o *Orchestrator) Options() Options {
	return *o.opts
}

// Run syncs every entity of kind. Pages are fetched sequentially and their
// entities dispatched in fetch order to at most Concurrency reconcilers.
//
// The first error from paging or reconciliation stops further fetching and
// dispatch; reconciliations already running are allowed to finish. That
// error is passed to OnError and returned. OnComplete is called only when
// every entity was reconciled.
func (o *Orchestrator) Run(ctx context.Context, kind catalog.Kind, cb Callbacks) error {
	ctx, cancelTimeout := o.withTimeout(ctx)
	defer cancelTimeout()

	ctx = logging.WithKind(logging.WithRunID(ctx, uuid.NewString()), kind.String())
	logger := logging.FromContext(ctx)
	logger.Info().Int("concurrency", o.opts.Concurrency).Bool("dry_run", o.opts.DryRun).Msg("Starting sync")

	r := newRun(kind, cb, o.opts.DryRun)

	// runCtx gates fetching and dispatch; reconciliation itself uses ctx so
	// in-flight work drains after the first failure.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan catalog.Entity)
	var wg stdsync.WaitGroup
	for range o.opts.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range items {
				if runCtx.Err() != nil {
					continue
				}
				res, err := o.reconciler.Reconcile(ctx, e)
				if err != nil {
					r.fail(err)
					cancel()
					continue
				}
				logger.Debug().
					Str("source_id", e.ID).
					Str("handle", e.Handle).
					Stringer("outcome", res.Outcome).
					Msg("Reconciled")
				r.progress(e, res)
			}
		}()
	}

	fetch := func(ctx context.Context, cursor *string) (*catalog.Page, error) {
		page, err := o.source.Page(ctx, kind, cursor)
		if err != nil {
			ref := ""
			if cursor != nil {
				ref = *cursor
			}
			return nil, asRemoteFetchError("page", kind, ref, err)
		}
		return page, nil
	}

	for e, err := range paginate.All(runCtx, fetch, r.fetched) {
		if err != nil {
			r.fail(err)
			cancel()
			break
		}
		select {
		case items <- e:
		case <-runCtx.Done():
		}
		if runCtx.Err() != nil {
			break
		}
	}
	close(items)
	wg.Wait()

	// The parent context may have ended while the producer was blocked on a
	// send, which records nothing above.
	if err := ctx.Err(); err != nil {
		r.fail(err)
	}
	return r.finish(ctx)
}

// RunOne syncs the single entity of kind identified by handle. A handle the
// remote source does not know fails with a RemoteFetchError wrapping
// errors.ErrNotFound, and the store is not touched.
func (o *Orchestrator) RunOne(ctx context.Context, kind catalog.Kind, handle string, cb Callbacks) error {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	ctx = logging.WithHandle(logging.WithKind(logging.WithRunID(ctx, uuid.NewString()), kind.String()), handle)
	logging.FromContext(ctx).Info().Bool("dry_run", o.opts.DryRun).Msg("Starting single sync")

	r := newRun(kind, cb, o.opts.DryRun)
	r.summary.Handle = handle

	entity, err := o.source.ByHandle(ctx, kind, handle)
	switch {
	case err != nil:
		r.fail(asRemoteFetchError("handle", kind, handle, err))
	case entity == nil:
		r.fail(&errors.RemoteFetchError{
			Operation: "handle",
			Kind:      kind.String(),
			Ref:       handle,
			Err:       errors.NewNotFoundError(kind.String(), handle),
		})
	default:
		r.summary.Fetched = 1
		res, err := o.reconciler.Reconcile(ctx, *entity)
		if err != nil {
			r.fail(err)
			break
		}
		r.progress(*entity, res)
	}
	return r.finish(ctx)
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.Timeout > 0 {
		return context.WithTimeout(ctx, o.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// asRemoteFetchError types source failures. Context errors pass through.
func asRemoteFetchError(op string, kind catalog.Kind, ref string, err error) error {
	if errors.IsRemoteFetch(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &errors.RemoteFetchError{Operation: op, Kind: kind.String(), Ref: ref, Err: err}
}

// run holds the state of one Run or RunOne call. Every callback is invoked
// with mu held.
type run struct {
	mu      stdsync.Mutex
	cb      Callbacks
	summary Summary
	err     error
	started time.Time
}

func newRun(kind catalog.Kind, cb Callbacks, dryRun bool) *run {
	if cb == nil {
		cb = NopCallbacks{}
	}
	return &run{
		cb:      cb,
		summary: Summary{Kind: kind, DryRun: dryRun},
		started: time.Now(),
	}
}

func (r *run) fetched(entities []catalog.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Pages++
	r.summary.Fetched += len(entities)
	r.cb.OnFetchedItems(entities)
}

func (r *run) progress(e catalog.Entity, res reconciler.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.record(res)
	r.cb.OnProgress(e, res)
}

// fail records err unless an earlier error was already recorded.
func (r *run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// finish delivers exactly one of OnError or OnComplete.
func (r *run) finish(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary.Duration = time.Since(r.started)
	logger := logging.FromContext(ctx)

	if r.err != nil {
		logger.Error().Err(r.err).
			Int("reconciled", r.summary.Reconciled()).
			Dur("duration", r.summary.Duration).
			Msg("Sync aborted")
		r.cb.OnError(r.err)
		return r.err
	}

	logger.Info().
		Int("pages", r.summary.Pages).
		Int("fetched", r.summary.Fetched).
		Int("created", r.summary.Created).
		Int("updated", r.summary.Updated).
		Int("skipped", r.summary.Skipped).
		Dur("duration", r.summary.Duration).
		Msg("Sync complete")
	r.cb.OnComplete(r.summary)
	return nil
}
