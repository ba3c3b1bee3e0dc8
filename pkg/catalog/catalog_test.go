package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/errors"
)

func TestTag(t *testing.T) {
	tests := []struct {
		name     string
		typename string
		want     catalog.TypeTag
		wantErr  error
	}{
		{name: "product", typename: "Product", want: catalog.TypeProduct},
		{name: "collection", typename: "Collection", want: catalog.TypeCollection},
		{name: "missing", typename: "", wantErr: errors.ErrMissingDiscriminator},
		{name: "unsupported", typename: "ProductVariant", wantErr: errors.ErrUnsupportedDiscriminator},
		{name: "case sensitive", typename: "product", wantErr: errors.ErrUnsupportedDiscriminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := catalog.Tag(catalog.Entity{Typename: tt.typename, ID: "gid://shopify/X/1"})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag)
		})
	}
}

func TestTagForKinds(t *testing.T) {
	for _, kind := range catalog.Kinds() {
		tag, err := catalog.Tag(catalog.Entity{Typename: kind.Typename()})
		require.NoError(t, err)
		assert.Equal(t, catalog.TagFor(kind), tag)
	}
	assert.Empty(t, catalog.TagFor(catalog.Kind("variant")))
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"product", "products", " Product "} {
		kind, err := catalog.ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, catalog.KindProduct, kind)
	}

	kind, err := catalog.ParseKind("collections")
	require.NoError(t, err)
	assert.Equal(t, catalog.KindCollection, kind)

	_, err = catalog.ParseKind("variants")
	assert.True(t, errors.IsValidationError(err))
}

func TestFromNode(t *testing.T) {
	node := map[string]any{
		"__typename": "Product",
		"id":         "gid://shopify/Product/7",
		"handle":     "linen-shirt",
		"title":      "Linen Shirt",
	}

	e := catalog.FromNode(node)
	assert.Equal(t, "Product", e.Typename)
	assert.Equal(t, "gid://shopify/Product/7", e.ID)
	assert.Equal(t, "linen-shirt", e.Handle)
	assert.Equal(t, "Linen Shirt", e.Payload["title"])

	empty := catalog.FromNode(map[string]any{"id": 42})
	assert.Empty(t, empty.ID)
	assert.Empty(t, empty.Typename)
}

func TestClonePayload(t *testing.T) {
	original := map[string]any{
		"title": "Tee",
		"tags":  []any{"summer", "cotton"},
		"seo":   map[string]any{"title": "Tee | Shop"},
	}

	clone := catalog.ClonePayload(original)
	assert.Equal(t, original, clone)

	clone["tags"].([]any)[0] = "winter"
	clone["seo"].(map[string]any)["title"] = "changed"

	assert.Equal(t, "summer", original["tags"].([]any)[0])
	assert.Equal(t, "Tee | Shop", original["seo"].(map[string]any)["title"])
	assert.Nil(t, catalog.ClonePayload(nil))
}

func TestNormalizePayload(t *testing.T) {
	in := map[string]any{
		"count": uint64(3),
		"tags":  []string{"a"},
		"seo":   map[string]any{"weight": 1},
	}

	out, err := catalog.NormalizePayload(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"count": float64(3),
		"tags":  []any{"a"},
		"seo":   map[string]any{"weight": float64(1)},
	}, out)

	out, err = catalog.NormalizePayload(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
