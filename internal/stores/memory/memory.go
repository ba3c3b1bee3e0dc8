// Package memory provides an in-memory document store for tests, dry runs
// and one-off syncs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// Stats counts calls made against a Store.
type Stats struct {
	Lookups int
	Creates int
	Patches int
}

// Writes returns the number of write calls.
func (s Stats) Writes() int {
	return s.Creates + s.Patches
}

// Store is a mutex-guarded map of documents. Documents are deep-copied on
// the way in and out so callers never share state with the store.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*documents.Document
	byKey map[documents.Key]string
	stats Stats
	now   func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:  make(map[string]*documents.Document),
		byKey: make(map[documents.Key]string),
		now:   time.Now,
	}
}

// Lookup implements documents.Store.
func (s *Store) Lookup(ctx context.Context, docType catalog.TypeTag, sourceID string) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Lookups++

	id, ok := s.byKey[documents.Key{Type: docType, SourceID: sourceID}]
	if !ok {
		return nil, nil
	}
	return s.byID[id].Clone(), nil
}

// Create implements documents.Store. It rejects a second document for the
// same (type, source id) key.
func (s *Store) Create(ctx context.Context, doc *documents.Document) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewValidationError("doc", nil, "cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Creates++

	key := doc.Key()
	if _, exists := s.byKey[key]; exists {
		return nil, errors.NewStoreError("create", key.Type.String(), key.SourceID, errors.New("document already exists"))
	}

	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.byID[stored.ID] = stored
	s.byKey[key] = stored.ID
	return stored.Clone(), nil
}

// Patch implements documents.Store.
func (s *Store) Patch(ctx context.Context, id string, p documents.Projection) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Patches++

	doc, ok := s.byID[id]
	if !ok {
		return nil, errors.NewStoreError("patch", "", id, errors.NewNotFoundError("document", id))
	}
	p.ApplyTo(doc)
	doc.UpdatedAt = s.now().UTC()
	return doc.Clone(), nil
}

// Put stores doc as-is, replacing any document with the same key. It does
// not count as a write and is meant for seeding.
func (s *Store) Put(doc *documents.Document) *documents.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if oldID, ok := s.byKey[stored.Key()]; ok {
		delete(s.byID, oldID)
	}
	s.byID[stored.ID] = stored
	s.byKey[stored.Key()] = stored.ID
	return stored.Clone()
}

// Get returns the document stored under key, if any.
func (s *Store) Get(docType catalog.TypeTag, sourceID string) (*documents.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[documents.Key{Type: docType, SourceID: sourceID}]
	if !ok {
		return nil, false
	}
	return s.byID[id].Clone(), true
}

// List returns every document ordered by type then source id.
func (s *Store) List() []*documents.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*documents.Document, 0, len(s.byID))
	for _, doc := range s.byID {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Stats returns call counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
