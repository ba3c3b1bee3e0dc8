package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shelfsync/internal/stores/memory"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/reconciler"
)

func product(id, handle, title string) catalog.Entity {
	return catalog.FromNode(map[string]any{
		"__typename": catalog.TypenameProduct,
		"id":         id,
		"handle":     handle,
		"title":      title,
		"tags":       []any{"new"},
	})
}

func noPacing() reconciler.Option {
	return reconciler.WithPacingDelay(0)
}

func TestReconcileCreatesThenSkips(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r, err := reconciler.New(store, noPacing())
	require.NoError(t, err)

	e := product("gid://shopify/Product/1", "tee", "Tee")

	first, err := r.Reconcile(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, reconciler.OutcomeCreated, first.Outcome)
	assert.Equal(t, catalog.TypeProduct, first.Document.Type)
	assert.Equal(t, "tee", first.Document.Slug.Current)
	assert.Equal(t, e.Payload, first.Document.Source)

	second, err := r.Reconcile(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, reconciler.OutcomeSkipped, second.Outcome)
	assert.Equal(t, first.Document.ID, second.Document.ID)

	assert.Equal(t, memory.Stats{Lookups: 2, Creates: 1}, store.Stats())
}

func TestReconcileUpdatesDrift(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r, err := reconciler.New(store, noPacing())
	require.NoError(t, err)

	_, err = r.Reconcile(ctx, product("gid://shopify/Product/1", "tee", "Tee"))
	require.NoError(t, err)

	changed := product("gid://shopify/Product/1", "classic-tee", "Classic Tee")
	res, err := r.Reconcile(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, reconciler.OutcomeUpdated, res.Outcome)

	stored, ok := store.Get(catalog.TypeProduct, "gid://shopify/Product/1")
	require.True(t, ok)
	assert.Equal(t, "classic-tee", stored.Slug.Current)
	assert.Equal(t, changed.Payload, stored.Source)
	assert.Equal(t, 1, store.Len())

	again, err := r.Reconcile(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, reconciler.OutcomeSkipped, again.Outcome)
}

func TestReconcileLeavesUntrackedFields(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	seeded := store.Put(&documents.Document{
		ID:        "doc-1",
		Type:      catalog.TypeProduct,
		SourceID:  "gid://shopify/Product/7",
		Slug:      documents.Slug{Current: "old"},
		CreatedAt: created,
	})

	r, err := reconciler.New(store, noPacing())
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, product("gid://shopify/Product/7", "new", "New"))
	require.NoError(t, err)
	assert.Equal(t, reconciler.OutcomeUpdated, res.Outcome)
	assert.Equal(t, seeded.ID, res.Document.ID)
	assert.Equal(t, created, res.Document.CreatedAt)
}

func TestReconcileDiscriminatorErrorsSkipStore(t *testing.T) {
	tests := []struct {
		name     string
		typename string
		target   error
	}{
		{name: "missing", typename: "", target: errors.ErrMissingDiscriminator},
		{name: "unsupported", typename: "ProductVariant", target: errors.ErrUnsupportedDiscriminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			r, err := reconciler.New(store, noPacing())
			require.NoError(t, err)

			e := product("gid://shopify/Product/1", "tee", "Tee")
			e.Typename = tt.typename

			_, err = r.Reconcile(context.Background(), e)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, errors.IsDiscriminator(err))
			assert.Equal(t, memory.Stats{}, store.Stats())
		})
	}
}

type failingStore struct {
	documents.Store
	err error
}

func (f failingStore) Lookup(context.Context, catalog.TypeTag, string) (*documents.Document, error) {
	return nil, f.err
}

func TestReconcileWrapsStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	r, err := reconciler.New(failingStore{err: boom}, noPacing())
	require.NoError(t, err)

	_, err = r.Reconcile(context.Background(), product("gid://shopify/Product/1", "tee", "Tee"))
	require.Error(t, err)
	assert.True(t, errors.IsStore(err))
	assert.ErrorIs(t, err, boom)

	var storeErr *errors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "lookup", storeErr.Operation)
	assert.Equal(t, "shopify.product", storeErr.Type)
}

func TestReconcilePassesContextErrors(t *testing.T) {
	r, err := reconciler.New(failingStore{err: context.Canceled}, noPacing())
	require.NoError(t, err)

	_, err = r.Reconcile(context.Background(), product("gid://shopify/Product/1", "tee", "Tee"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.IsStore(err))
}

func TestReconcilePacesBeforeLookup(t *testing.T) {
	store := memory.New()
	var slept []time.Duration
	r, err := reconciler.New(store,
		reconciler.WithPacingDelay(75*time.Millisecond),
		reconciler.WithSleep(func(_ context.Context, d time.Duration) error {
			assert.Zero(t, store.Stats().Lookups, "pacing must precede lookup")
			slept = append(slept, d)
			return nil
		}),
	)
	require.NoError(t, err)

	_, err = r.Reconcile(context.Background(), product("gid://shopify/Product/1", "tee", "Tee"))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{75 * time.Millisecond}, slept)
}

func TestReconcilePacingHonoursCancellation(t *testing.T) {
	store := memory.New()
	r, err := reconciler.New(store, reconciler.WithPacingDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Reconcile(ctx, product("gid://shopify/Product/1", "tee", "Tee"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Stats().Lookups)
}

func TestNewValidation(t *testing.T) {
	_, err := reconciler.New(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(memory.New(), reconciler.WithPacingDelay(-time.Second))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(memory.New(), reconciler.WithSleep(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "created", reconciler.OutcomeCreated.String())
	assert.Equal(t, "updated", reconciler.OutcomeUpdated.String())
	assert.Equal(t, "skipped", reconciler.OutcomeSkipped.String())
	assert.Equal(t, "Outcome(9)", reconciler.Outcome(9).String())
}
