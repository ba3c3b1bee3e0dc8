package transport_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/shelfsync/internal/transport"
)

func newRequest(t *testing.T, raw string) *http.Request {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &http.Request{URL: u, Header: make(http.Header)}
}

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name   string
		auth   transport.Authenticator
		header string
		value  string
		query  string
	}{
		{name: "bearer", auth: &transport.BearerAuth{}, header: "Authorization", value: "Bearer shpat_123"},
		{name: "header", auth: &transport.HeaderAuth{Header: "x-api-key"}, header: "x-api-key", value: "shpat_123"},
		{name: "shopify", auth: transport.ShopifyAuth(), header: transport.ShopifyAccessTokenHeader, value: "shpat_123"},
		{name: "query", auth: &transport.QueryAuth{Param: "key"}, query: "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, "https://shop.example.com/admin/api/graphql.json?existing=value")
			tt.auth.Apply(req, "shpat_123")

			if tt.query != "" {
				assert.Equal(t, "shpat_123", req.URL.Query().Get(tt.query))
				assert.Equal(t, "value", req.URL.Query().Get("existing"))
				return
			}
			assert.Equal(t, tt.value, req.Header.Get(tt.header))
		})
	}
}

func TestNoAuth(t *testing.T) {
	req := newRequest(t, "https://shop.example.com")
	(&transport.NoAuth{}).Apply(req, "shpat_123")
	assert.Empty(t, req.Header)
}

func TestQueryAuthNilURL(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	assert.NotPanics(t, func() {
		(&transport.QueryAuth{Param: "key"}).Apply(req, "shpat_123")
	})
}
