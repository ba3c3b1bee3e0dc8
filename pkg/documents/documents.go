// Package documents defines the records shelfsync writes to the document
// store and the narrow store interface the reconciler depends on.
package documents

import (
	"context"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/agentstation/shelfsync/pkg/catalog"
)

// Slug wraps an entity handle the way the store's slug fields expect.
type Slug struct {
	Current string `json:"current" yaml:"current"`
}

// Document is one persisted catalog record. It is unique per (Type, SourceID).
type Document struct {
	ID        string          `json:"_id" yaml:"id"`
	Type      catalog.TypeTag `json:"_type" yaml:"type"`
	SourceID  string          `json:"sourceId" yaml:"source_id"`
	Slug      Slug            `json:"slug" yaml:"slug"`
	Source    map[string]any  `json:"source" yaml:"source"`
	CreatedAt time.Time       `json:"_createdAt,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt time.Time       `json:"_updatedAt,omitzero" yaml:"updated_at,omitempty"`
}

// Key identifies a document by its natural key.
type Key struct {
	Type     catalog.TypeTag
	SourceID string
}

// Key returns the document's natural key.
func (d *Document) Key() Key {
	return Key{Type: d.Type, SourceID: d.SourceID}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Source = catalog.ClonePayload(d.Source)
	return &c
}

// New builds the document created for an entity seen for the first time.
func New(tag catalog.TypeTag, e catalog.Entity) *Document {
	return &Document{
		Type:     tag,
		SourceID: e.ID,
		Slug:     Slug{Current: e.Handle},
		Source:   catalog.ClonePayload(e.Payload),
	}
}

// Projection is the set of fields refreshed on every sync of an existing
// document. Fields outside the projection are never compared or written.
type Projection struct {
	Slug   Slug           `json:"slug"`
	Source map[string]any `json:"source"`
}

// ProjectionOf returns the projection for the current state of an entity.
func ProjectionOf(e catalog.Entity) Projection {
	return Projection{
		Slug:   Slug{Current: e.Handle},
		Source: catalog.ClonePayload(e.Payload),
	}
}

// payloadEquality treats nil and empty maps/slices as equal, since the
// encodings behind the stores do not preserve the difference.
var payloadEquality = cmpopts.EquateEmpty()

// Matches reports whether d already holds every projected field.
func (p Projection) Matches(d *Document) bool {
	if d == nil {
		return false
	}
	return d.Slug == p.Slug && cmp.Equal(d.Source, p.Source, payloadEquality)
}

// Diff returns a human-readable diff between d and the projection, empty when
// they match.
func (p Projection) Diff(d *Document) string {
	if d == nil {
		return "document missing"
	}
	current := Projection{Slug: d.Slug, Source: d.Source}
	return cmp.Diff(current, p, payloadEquality)
}

// ApplyTo writes the projection onto d.
func (p Projection) ApplyTo(d *Document) {
	d.Slug = p.Slug
	d.Source = catalog.ClonePayload(p.Source)
}

// Store is the document store capability the reconciler needs.
type Store interface {
	// Lookup returns the document for (docType, sourceID), or nil, nil when
	// none exists.
	Lookup(ctx context.Context, docType catalog.TypeTag, sourceID string) (*Document, error)

	// Create persists a new document and returns it with its store id set.
	Create(ctx context.Context, doc *Document) (*Document, error)

	// Patch applies the projection to the document with the given id and
	// returns the updated document.
	Patch(ctx context.Context, id string, p Projection) (*Document, error)
}
