package transport

import (
	"net/http"
)

// ShopifyAccessTokenHeader carries the Admin API access token.
const ShopifyAccessTokenHeader = "X-Shopify-Access-Token"

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, token string) {
	req.Header.Set(a.Header, token)
}

// QueryAuth implements token as query parameter authentication.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, token string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, token)
	req.URL.RawQuery = query.Encode()
}

// ShopifyAuth returns the authenticator for the Shopify Admin API.
func ShopifyAuth() Authenticator {
	return &HeaderAuth{Header: ShopifyAccessTokenHeader}
}
