package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shelfsync/internal/stores/memory"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
)

func newDoc(sourceID, handle string) *documents.Document {
	return &documents.Document{
		Type:     catalog.TypeCollection,
		SourceID: sourceID,
		Slug:     documents.Slug{Current: handle},
		Source:   map[string]any{"title": handle},
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	got, err := store.Lookup(ctx, catalog.TypeCollection, "gid://shopify/Collection/1")
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := store.Create(ctx, newDoc("gid://shopify/Collection/1", "summer"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err = store.Lookup(ctx, catalog.TypeCollection, "gid://shopify/Collection/1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	// same source id under another type is a different key
	other, err := store.Lookup(ctx, catalog.TypeProduct, "gid://shopify/Collection/1")
	require.NoError(t, err)
	assert.Nil(t, other)

	patched, err := store.Patch(ctx, created.ID, documents.Projection{
		Slug:   documents.Slug{Current: "summer-2025"},
		Source: map[string]any{"title": "Summer 2025"},
	})
	require.NoError(t, err)
	assert.Equal(t, "summer-2025", patched.Slug.Current)
	assert.Equal(t, created.SourceID, patched.SourceID)

	stats := store.Stats()
	assert.Equal(t, memory.Stats{Lookups: 3, Creates: 1, Patches: 1}, stats)
	assert.Equal(t, 2, stats.Writes())
	assert.Equal(t, 1, store.Len())
}

func TestStoreRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, err := store.Create(ctx, newDoc("gid://shopify/Collection/1", "a"))
	require.NoError(t, err)

	_, err = store.Create(ctx, newDoc("gid://shopify/Collection/1", "b"))
	assert.True(t, errors.IsStore(err))
	assert.Equal(t, 1, store.Len())
}

func TestStorePatchUnknownID(t *testing.T) {
	_, err := memory.New().Patch(context.Background(), "missing", documents.Projection{})
	assert.True(t, errors.IsStore(err))
	assert.True(t, errors.IsNotFound(err))
}

func TestStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	doc := newDoc("gid://shopify/Collection/9", "x")
	created, err := store.Create(ctx, doc)
	require.NoError(t, err)

	doc.Source["title"] = "mutated input"
	created.Source["title"] = "mutated output"

	stored, ok := store.Get(catalog.TypeCollection, "gid://shopify/Collection/9")
	require.True(t, ok)
	assert.Equal(t, "x", stored.Source["title"])
}

func TestStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.New().Lookup(ctx, catalog.TypeProduct, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPutAndList(t *testing.T) {
	store := memory.New()
	store.Put(newDoc("b", "b"))
	store.Put(newDoc("a", "a"))
	replaced := store.Put(newDoc("a", "a2"))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].SourceID)
	assert.Equal(t, "a2", list[0].Slug.Current)
	assert.Equal(t, replaced.ID, list[0].ID)
	assert.Zero(t, store.Stats().Writes())
}
