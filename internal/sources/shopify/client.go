// Package shopify reads products and collections from the Shopify Admin
// GraphQL API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentstation/shelfsync/internal/transport"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/constants"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/logging"
)

// Config holds the connection settings for one shop.
type Config struct {
	Domain      string // e.g. example.myshopify.com
	AccessToken string
	APIVersion  string
	PageSize    int
	RateLimit   float64 // requests per second, zero to disable
	HTTPClient  *http.Client
	Endpoint    string // overrides the URL derived from Domain and APIVersion
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" && c.Domain == "" {
		return &errors.ConfigError{Component: "shopify", Message: "shop domain is required"}
	}
	if c.AccessToken == "" {
		return &errors.ConfigError{Component: "shopify", Message: "access token is required"}
	}
	if c.APIVersion == "" {
		c.APIVersion = constants.DefaultAPIVersion
	}
	if c.PageSize == 0 {
		c.PageSize = constants.DefaultPageSize
	}
	if c.PageSize < 1 || c.PageSize > constants.MaxPageSize {
		return errors.NewValidationError("page_size", c.PageSize,
			fmt.Sprintf("must be between 1 and %d", constants.MaxPageSize))
	}
	if c.RateLimit < 0 {
		return errors.NewValidationError("rate_limit", c.RateLimit, "must be non-negative")
	}
	return nil
}

// Client implements catalog.Source for a Shopify shop.
type Client struct {
	transport *transport.Client
	endpoint  string
	pageSize  int
}

var _ catalog.Source = (*Client)(nil)

// NewClient creates a client for the configured shop.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		domain := strings.TrimSuffix(strings.TrimPrefix(cfg.Domain, "https://"), "/")
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, cfg.APIVersion)
	}

	return &Client{
		transport: transport.New(transport.ShopifyAuth(), cfg.AccessToken,
			transport.WithHTTPClient(cfg.HTTPClient),
			transport.WithRateLimit(cfg.RateLimit, constants.DefaultRateBurst),
		),
		endpoint: endpoint,
		pageSize: cfg.PageSize,
	}, nil
}

// Endpoint returns the GraphQL URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Page implements catalog.Source.
func (c *Client) Page(ctx context.Context, kind catalog.Kind, cursor *string) (*catalog.Page, error) {
	q, ok := pageQuery(kind)
	if !ok {
		return nil, errors.NewValidationError("kind", kind, "unsupported kind")
	}

	ref := ""
	vars := map[string]any{"first": c.pageSize}
	if cursor != nil {
		vars["after"] = *cursor
		ref = *cursor
	}

	var conn connection
	if err := c.execute(ctx, q, vars, &conn); err != nil {
		return nil, fetchError("page", kind, ref, err)
	}

	page := &catalog.Page{
		Entities:    make([]catalog.Entity, 0, len(conn.Nodes)),
		HasNextPage: conn.PageInfo.HasNextPage,
	}
	if conn.PageInfo.EndCursor != nil {
		page.EndCursor = *conn.PageInfo.EndCursor
	}
	for _, node := range conn.Nodes {
		page.Entities = append(page.Entities, catalog.FromNode(node))
	}

	logging.FromContext(ctx).Debug().
		Str("kind", kind.String()).
		Int("count", len(page.Entities)).
		Bool("has_next_page", page.HasNextPage).
		Msg("Fetched page")
	return page, nil
}

// ByHandle implements catalog.Source. It returns nil, nil when the shop has
// no entity with that handle.
func (c *Client) ByHandle(ctx context.Context, kind catalog.Kind, handle string) (*catalog.Entity, error) {
	q, ok := handleQuery(kind)
	if !ok {
		return nil, errors.NewValidationError("kind", kind, "unsupported kind")
	}

	var node map[string]any
	if err := c.execute(ctx, q, map[string]any{"handle": handle}, &node); err != nil {
		return nil, fetchError("handle", kind, handle, err)
	}
	if node == nil {
		return nil, nil
	}
	e := catalog.FromNode(node)
	return &e, nil
}

// connection is the nodes/pageInfo shape of a paginated field.
type connection struct {
	Nodes    []map[string]any `json:"nodes"`
	PageInfo struct {
		HasNextPage bool    `json:"hasNextPage"`
		EndCursor   *string `json:"endCursor"`
	} `json:"pageInfo"`
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graphqlError             `json:"errors"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// execute runs q and decodes its top-level field into target.
func (c *Client) execute(ctx context.Context, q query, vars map[string]any, target any) error {
	resp, err := c.transport.PostJSON(ctx, c.endpoint, graphqlRequest{Query: q.document, Variables: vars})
	if err != nil {
		return err
	}

	var out graphqlResponse
	if err := transport.DecodeResponse(ctx, resp, &out); err != nil {
		return err
	}
	if len(out.Errors) > 0 {
		return queryErrors(out.Errors)
	}

	raw, ok := out.Data[q.field]
	if !ok {
		return errors.WrapParse("json", "graphql response",
			fmt.Errorf("missing field %q in response data", q.field))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.WrapParse("json", q.field, err)
	}
	return nil
}

// queryError carries GraphQL-level errors from a 200 response.
type queryError struct {
	messages  []string
	throttled bool
}

func (e *queryError) Error() string {
	return strings.Join(e.messages, "; ")
}

// Is reports ErrRateLimited when any error carried the THROTTLED code.
func (e *queryError) Is(target error) bool {
	return target == errors.ErrRateLimited && e.throttled
}

func queryErrors(errs []graphqlError) error {
	qe := &queryError{}
	for _, ge := range errs {
		qe.messages = append(qe.messages, ge.Message)
		if ge.Extensions.Code == "THROTTLED" {
			qe.throttled = true
		}
	}
	return qe
}

// fetchError types a failed call. Context errors pass through.
func fetchError(op string, kind catalog.Kind, ref string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	fe := &errors.RemoteFetchError{Operation: op, Kind: kind.String(), Ref: ref, Err: err}
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		fe.StatusCode = statusErr.StatusCode
		fe.Message = statusErr.Body
	}
	return fe
}
