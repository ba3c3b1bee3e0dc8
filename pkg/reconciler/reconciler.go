// Package reconciler applies one fetched entity to the document store: it
// creates the document when missing, patches it when its tracked fields
// drifted, and leaves it alone otherwise.
package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/logging"
)

// Outcome is what a reconciliation did to the store.
type Outcome int

const (
	// OutcomeSkipped means the stored document already matched; nothing was written.
	OutcomeSkipped Outcome = iota
	// OutcomeCreated means a new document was created.
	OutcomeCreated
	// OutcomeUpdated means an existing document was patched.
	OutcomeUpdated
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is returned by Reconcile. Document is the stored document after the
// call: the created or patched one, or the untouched existing one on skip.
type Result struct {
	Outcome  Outcome
	Document *documents.Document
}

// Reconciler performs the lookup-then-create-or-update cycle for one entity.
// It is safe for concurrent use when the underlying store is.
type Reconciler struct {
	store documents.Store
	opts  *options
}

// New creates a Reconciler writing to store.
func New(store documents.Store, opts ...Option) (*Reconciler, error) {
	if store == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{store: store, opts: options}, nil
}

// Reconcile applies e to the store. It performs at most one write.
func (r *Reconciler) Reconcile(ctx context.Context, e catalog.Entity) (Result, error) {
	tag, err := catalog.Tag(e)
	if err != nil {
		return Result{}, err
	}

	if err := r.opts.sleep(ctx, r.opts.pacingDelay); err != nil {
		return Result{}, err
	}

	existing, err := r.store.Lookup(ctx, tag, e.ID)
	if err != nil {
		return Result{}, asStoreError("lookup", tag, e.ID, err)
	}

	logger := logging.FromContext(ctx).With().
		Str("type", tag.String()).
		Str("source_id", e.ID).
		Str("handle", e.Handle).
		Logger()

	if existing == nil {
		created, err := r.store.Create(ctx, documents.New(tag, e))
		if err != nil {
			return Result{}, asStoreError("create", tag, e.ID, err)
		}
		logger.Debug().Str("document_id", created.ID).Msg("Created document")
		return Result{Outcome: OutcomeCreated, Document: created}, nil
	}

	projection := documents.ProjectionOf(e)
	if projection.Matches(existing) {
		logger.Trace().Str("document_id", existing.ID).Msg("Document up to date")
		return Result{Outcome: OutcomeSkipped, Document: existing}, nil
	}

	if ev := logger.Trace(); ev.Enabled() {
		ev.Str("diff", projection.Diff(existing)).Msg("Document drifted")
	}

	patched, err := r.store.Patch(ctx, existing.ID, projection)
	if err != nil {
		return Result{}, asStoreError("patch", tag, existing.ID, err)
	}
	logger.Debug().Str("document_id", patched.ID).Msg("Patched document")
	return Result{Outcome: OutcomeUpdated, Document: patched}, nil
}

// asStoreError wraps store failures that are not already typed. Context
// errors pass through so callers can tell cancellation from store faults.
func asStoreError(op string, tag catalog.TypeTag, key string, err error) error {
	if errors.IsStore(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.WrapStore(op, tag.String(), key, err)
}
