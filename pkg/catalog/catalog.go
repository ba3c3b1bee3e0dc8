// Package catalog defines the entities fetched from the remote storefront API
// and the mapping from their type discriminator to document store type tags.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/shelfsync/pkg/errors"
)

// Kind names one of the two syncable entity kinds.
type Kind string

const (
	// KindProduct is a standalone catalog item.
	KindProduct Kind = "product"
	// KindCollection is a grouped set of products.
	KindCollection Kind = "collection"
)

// Kinds lists every syncable kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindProduct, KindCollection}
}

// ParseKind converts user input ("products", "Collection") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "product":
		return KindProduct, nil
	case "collection":
		return KindCollection, nil
	}
	return "", errors.NewValidationError("kind", s, "must be one of: product, collection")
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Typename returns the discriminator value the remote API uses for the kind.
func (k Kind) Typename() string {
	switch k {
	case KindProduct:
		return TypenameProduct
	case KindCollection:
		return TypenameCollection
	}
	return ""
}

// Discriminator values reported by the remote API in __typename.
const (
	TypenameProduct    = "Product"
	TypenameCollection = "Collection"
)

// Entity is one catalog record as received from the remote API.
// Payload holds the full node, including the id, handle and discriminator.
type Entity struct {
	Typename string         `json:"__typename"`
	ID       string         `json:"id"`
	Handle   string         `json:"handle"`
	Payload  map[string]any `json:"payload"`
}

// FromNode builds an Entity from a decoded GraphQL node.
func FromNode(node map[string]any) Entity {
	str := func(key string) string {
		if v, ok := node[key].(string); ok {
			return v
		}
		return ""
	}
	return Entity{
		Typename: str("__typename"),
		ID:       str("id"),
		Handle:   str("handle"),
		Payload:  node,
	}
}

// Kind returns the entity kind derived from its discriminator.
func (e Entity) Kind() (Kind, error) {
	switch e.Typename {
	case TypenameProduct:
		return KindProduct, nil
	case TypenameCollection:
		return KindCollection, nil
	}
	return "", &errors.DiscriminatorError{Value: e.Typename, SourceID: e.ID}
}

// String implements fmt.Stringer.
func (e Entity) String() string {
	return fmt.Sprintf("%s(%s %s)", e.Typename, e.ID, e.Handle)
}

// Page is one page of entities plus the pagination metadata needed to fetch
// the next one.
type Page struct {
	Entities    []Entity
	HasNextPage bool
	EndCursor   string
}

// Source is the remote catalog API.
type Source interface {
	// Page fetches one page of entities of the given kind. A nil cursor
	// requests the first page.
	Page(ctx context.Context, kind Kind, cursor *string) (*Page, error)

	// ByHandle fetches a single entity. It returns nil, nil when no entity
	// has the handle.
	ByHandle(ctx context.Context, kind Kind, handle string) (*Entity, error)
}
