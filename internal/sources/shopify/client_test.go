package shopify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shelfsync/internal/sources/shopify"
	"github.com/agentstation/shelfsync/internal/transport"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/paginate"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newClient(t *testing.T, handler http.HandlerFunc) *shopify.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := shopify.NewClient(shopify.Config{
		Endpoint:    server.URL,
		AccessToken: "shpat_test",
		PageSize:    2,
	})
	require.NoError(t, err)
	return client
}

func decodeRequest(t *testing.T, r *http.Request) gqlRequest {
	t.Helper()
	var req gqlRequest
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(t, "shpat_test", r.Header.Get(transport.ShopifyAccessTokenHeader))
	return req
}

func productNode(n int) map[string]any {
	return map[string]any{
		"__typename": "Product",
		"id":         fmt.Sprintf("gid://shopify/Product/%d", n),
		"handle":     fmt.Sprintf("product-%d", n),
		"title":      fmt.Sprintf("Product %d", n),
		"tags":       []string{"a", "b"},
	}
}

func TestPageFollowsCursor(t *testing.T) {
	var cursors []any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Contains(t, req.Query, "products(first: $first, after: $after)")
		assert.EqualValues(t, 2, req.Variables["first"])
		cursors = append(cursors, req.Variables["after"])

		resp := map[string]any{
			"data": map[string]any{
				"products": map[string]any{
					"nodes":    []any{productNode(1), productNode(2)},
					"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "c1"},
				},
			},
		}
		if req.Variables["after"] == "c1" {
			resp["data"] = map[string]any{
				"products": map[string]any{
					"nodes":    []any{productNode(3)},
					"pageInfo": map[string]any{"hasNextPage": false, "endCursor": nil},
				},
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	fetch := func(ctx context.Context, cursor *string) (*catalog.Page, error) {
		return client.Page(ctx, catalog.KindProduct, cursor)
	}
	entities, err := paginate.Collect(paginate.All(context.Background(), fetch, nil))
	require.NoError(t, err)

	require.Len(t, entities, 3)
	assert.Equal(t, []any{nil, "c1"}, cursors)
	assert.Equal(t, "Product", entities[0].Typename)
	assert.Equal(t, "gid://shopify/Product/3", entities[2].ID)
	assert.Equal(t, "product-3", entities[2].Handle)
	assert.Equal(t, []any{"a", "b"}, entities[0].Payload["tags"])
}

func TestByHandle(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Contains(t, req.Query, "collectionByIdentifier")

		var node any
		if req.Variables["handle"] == "summer" {
			node = map[string]any{
				"__typename": "Collection",
				"id":         "gid://shopify/Collection/9",
				"handle":     "summer",
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"collectionByIdentifier": node},
		})
	})

	e, err := client.ByHandle(context.Background(), catalog.KindCollection, "summer")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "gid://shopify/Collection/9", e.ID)

	tag, err := catalog.Tag(*e)
	require.NoError(t, err)
	assert.Equal(t, catalog.TypeCollection, tag)

	missing, err := client.ByHandle(context.Background(), catalog.KindCollection, "winter")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		rateLimited bool
		statusCode  int
	}{
		{
			name:       "server error",
			status:     http.StatusBadGateway,
			body:       "bad gateway",
			statusCode: http.StatusBadGateway,
		},
		{
			name:        "too many requests",
			status:      http.StatusTooManyRequests,
			body:        "slow down",
			rateLimited: true,
			statusCode:  http.StatusTooManyRequests,
		},
		{
			name:   "graphql errors",
			status: http.StatusOK,
			body:   `{"errors":[{"message":"Field 'x' doesn't exist"},{"message":"second"}]}`,
		},
		{
			name:        "throttled",
			status:      http.StatusOK,
			body:        `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`,
			rateLimited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Page(context.Background(), catalog.KindCollection, nil)
			require.Error(t, err)
			assert.True(t, errors.IsRemoteFetch(err))
			assert.Equal(t, tt.rateLimited, errors.IsRateLimited(err))

			var fetchErr *errors.RemoteFetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, "page", fetchErr.Operation)
			assert.Equal(t, "collection", fetchErr.Kind)
			assert.Equal(t, tt.statusCode, fetchErr.StatusCode)
		})
	}
}

func TestGraphQLErrorMessages(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"first"},{"message":"second"}]}`))
	})

	_, err := client.ByHandle(context.Background(), catalog.KindProduct, "tee")
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), "first; second"), err.Error())
}

func TestConfigValidate(t *testing.T) {
	_, err := shopify.NewClient(shopify.Config{AccessToken: "x"})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = shopify.NewClient(shopify.Config{Domain: "example.myshopify.com"})
	assert.ErrorAs(t, err, &cfgErr)

	_, err = shopify.NewClient(shopify.Config{Domain: "example.myshopify.com", AccessToken: "x", PageSize: 500})
	assert.True(t, errors.IsValidationError(err))

	client, err := shopify.NewClient(shopify.Config{Domain: "https://example.myshopify.com/", AccessToken: "x"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.myshopify.com/admin/api/2024-10/graphql.json", client.Endpoint())
}
