// Package files stores documents as YAML, one file per document type, under a
// single directory. Every write rewrites the affected file atomically.
package files

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/constants"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// Store is a YAML-file-backed documents.Store. It is safe for concurrent use
// within one process; separate processes must not share a directory.
type Store struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	loaded map[catalog.TypeTag]bool
	docs   map[catalog.TypeTag]map[string]*documents.Document // by source id
	types  map[string]catalog.TypeTag                          // document id to type
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.NewValidationError("dir", dir, "cannot be empty")
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Store{
		dir:    dir,
		now:    time.Now,
		loaded: make(map[catalog.TypeTag]bool),
		docs:   make(map[catalog.TypeTag]map[string]*documents.Document),
		types:  make(map[string]catalog.TypeTag),
	}, nil
}

// Path returns the file holding documents of docType.
func (s *Store) Path(docType catalog.TypeTag) string {
	return filepath.Join(s.dir, docType.String()+".yaml")
}

// Lookup implements documents.Store.
func (s *Store) Lookup(ctx context.Context, docType catalog.TypeTag, sourceID string) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(docType); err != nil {
		return nil, errors.WrapStore("lookup", docType.String(), sourceID, err)
	}
	return s.docs[docType][sourceID].Clone(), nil
}

// Create implements documents.Store.
func (s *Store) Create(ctx context.Context, doc *documents.Document) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewValidationError("doc", nil, "cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(doc.Type); err != nil {
		return nil, errors.WrapStore("create", doc.Type.String(), doc.SourceID, err)
	}
	if _, exists := s.docs[doc.Type][doc.SourceID]; exists {
		return nil, errors.NewStoreError("create", doc.Type.String(), doc.SourceID, errors.New("document already exists"))
	}

	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.docs[stored.Type][stored.SourceID] = stored
	s.types[stored.ID] = stored.Type
	if err := s.flush(stored.Type); err != nil {
		delete(s.docs[stored.Type], stored.SourceID)
		delete(s.types, stored.ID)
		return nil, errors.WrapStore("create", stored.Type.String(), stored.SourceID, err)
	}
	return stored.Clone(), nil
}

// Patch implements documents.Store.
func (s *Store) Patch(ctx context.Context, id string, p documents.Projection) (*documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docType, ok := s.types[id]
	if !ok {
		// the id may live in a file not read yet
		for _, kind := range catalog.Kinds() {
			if err := s.load(catalog.TagFor(kind)); err != nil {
				return nil, errors.WrapStore("patch", "", id, err)
			}
		}
		if docType, ok = s.types[id]; !ok {
			return nil, errors.NewStoreError("patch", "", id, errors.NewNotFoundError("document", id))
		}
	}

	var current *documents.Document
	for _, doc := range s.docs[docType] {
		if doc.ID == id {
			current = doc
			break
		}
	}
	if current == nil {
		return nil, errors.NewStoreError("patch", docType.String(), id, errors.NewNotFoundError("document", id))
	}

	patched := current.Clone()
	p.ApplyTo(patched)
	patched.UpdatedAt = s.now().UTC()

	s.docs[docType][patched.SourceID] = patched
	if err := s.flush(docType); err != nil {
		s.docs[docType][patched.SourceID] = current
		return nil, errors.WrapStore("patch", docType.String(), id, err)
	}
	return patched.Clone(), nil
}

// load reads the file for docType once. A missing file is an empty set.
func (s *Store) load(docType catalog.TypeTag) error {
	if s.loaded[docType] {
		return nil
	}

	byID := make(map[string]*documents.Document)
	path := s.Path(docType)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return errors.WrapIO("read", path, err)
	default:
		var list []*documents.Document
		if err := yaml.Unmarshal(data, &list); err != nil {
			return errors.WrapParse("yaml", path, err)
		}
		for _, doc := range list {
			source, err := catalog.NormalizePayload(doc.Source)
			if err != nil {
				return errors.WrapParse("yaml", path, err)
			}
			doc.Source = source
			byID[doc.SourceID] = doc
			s.types[doc.ID] = docType
		}
	}

	s.docs[docType] = byID
	s.loaded[docType] = true
	return nil
}

// flush rewrites the file for docType through a temp file and rename.
func (s *Store) flush(docType catalog.TypeTag) error {
	list := make([]*documents.Document, 0, len(s.docs[docType]))
	for _, doc := range s.docs[docType] {
		list = append(list, doc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SourceID < list[j].SourceID })

	// flow style quotes every string, so values like ".inf" stay strings
	data, err := yaml.MarshalWithOptions(list, yaml.JSON())
	if err != nil {
		return errors.WrapParse("yaml", s.Path(docType), err)
	}

	tempFile, err := os.CreateTemp(s.dir, "."+docType.String()+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("close", tempPath, err)
	}
	if err := os.Chmod(tempPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("chmod", tempPath, err)
	}
	if err := os.Rename(tempPath, s.Path(docType)); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("rename", s.Path(docType), err)
	}
	return nil
}
