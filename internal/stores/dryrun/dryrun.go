// Package dryrun wraps a document store so a sync can run end to end without
// writing. Reads go to the wrapped store; writes are recorded and kept in an
// overlay so later lookups in the same run see them.
package dryrun

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
	"github.com/agentstation/shelfsync/pkg/logging"
)

// Op is the kind of write a dry run recorded.
type Op string

const (
	// OpCreate is a document that would have been created.
	OpCreate Op = "create"
	// OpPatch is a document that would have been patched.
	OpPatch Op = "patch"
)

// Change is one suppressed write.
type Change struct {
	Op       Op
	Document *documents.Document
}

// Store records writes instead of performing them.
type Store struct {
	next documents.Store

	mu      sync.Mutex
	overlay map[documents.Key]*documents.Document
	byID    map[string]*documents.Document // documents seen through Lookup or Create
	changes []Change
}

// New wraps next.
func New(next documents.Store) *Store {
	return &Store{
		next:    next,
		overlay: make(map[documents.Key]*documents.Document),
		byID:    make(map[string]*documents.Document),
	}
}

// Lookup implements documents.Store.
func (s *Store) Lookup(ctx context.Context, docType catalog.TypeTag, sourceID string) (*documents.Document, error) {
	key := documents.Key{Type: docType, SourceID: sourceID}

	s.mu.Lock()
	if doc, ok := s.overlay[key]; ok {
		s.mu.Unlock()
		return doc.Clone(), nil
	}
	s.mu.Unlock()

	doc, err := s.next.Lookup(ctx, docType, sourceID)
	if err != nil || doc == nil {
		return doc, err
	}

	s.mu.Lock()
	s.byID[doc.ID] = doc.Clone()
	s.mu.Unlock()
	return doc, nil
}

// Create implements documents.Store.
func (s *Store) Create(ctx context.Context, doc *documents.Document) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = "dryrun-" + uuid.NewString()
	}

	s.mu.Lock()
	s.overlay[stored.Key()] = stored
	s.byID[stored.ID] = stored
	s.changes = append(s.changes, Change{Op: OpCreate, Document: stored.Clone()})
	s.mu.Unlock()

	logging.FromContext(ctx).Info().
		Str("type", stored.Type.String()).
		Str("source_id", stored.SourceID).
		Msg("Dry run: would create document")
	return stored.Clone(), nil
}

// Patch implements documents.Store. Only documents previously returned by
// Lookup or Create can be patched.
func (s *Store) Patch(ctx context.Context, id string, p documents.Projection) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	doc, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, errors.NewStoreError("patch", "", id, errors.NewNotFoundError("document", id))
	}
	patched := doc.Clone()
	p.ApplyTo(patched)
	s.byID[id] = patched
	s.overlay[patched.Key()] = patched
	s.changes = append(s.changes, Change{Op: OpPatch, Document: patched.Clone()})
	s.mu.Unlock()

	logging.FromContext(ctx).Info().
		Str("type", patched.Type.String()).
		Str("source_id", patched.SourceID).
		Str("document_id", id).
		Msg("Dry run: would patch document")
	return patched.Clone(), nil
}

// Changes returns the recorded writes in the order they were made.
func (s *Store) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Change, len(s.changes))
	copy(out, s.changes)
	return out
}
