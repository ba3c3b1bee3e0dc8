// Package postgres stores documents in a Postgres table with the source
// snapshot in a jsonb column.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
  id uuid PRIMARY KEY,
  type text NOT NULL,
  source_id text NOT NULL,
  slug text NOT NULL,
  source jsonb NOT NULL DEFAULT '{}'::jsonb,
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now(),
  UNIQUE (type, source_id)
);
`

const columns = `id::text, type, source_id, slug, source, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a Postgres-backed documents.Store.
type Store struct {
	db   DB
	pool *pgxpool.Pool
}

// New wraps an existing connection or pool.
func New(db DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn, verifies the connection and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, &errors.ConfigError{Component: "postgres", Message: "database url is required"}
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &errors.ConfigError{Component: "postgres", Message: "invalid database url", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.WrapStore("connect", "", "", err)
	}

	s := &Store{db: pool, pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the documents table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return errors.WrapStore("migrate", "", "", err)
	}
	return nil
}

// Close releases the pool opened by Open. It is a no-op for stores built
// with New.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Lookup implements documents.Store.
func (s *Store) Lookup(ctx context.Context, docType catalog.TypeTag, sourceID string) (*documents.Document, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+columns+` FROM documents WHERE type = $1 AND source_id = $2`,
		docType.String(), sourceID)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("lookup", docType.String(), sourceID, err)
	}
	return doc, nil
}

// Create implements documents.Store.
func (s *Store) Create(ctx context.Context, doc *documents.Document) (*documents.Document, error) {
	if doc == nil {
		return nil, errors.NewValidationError("doc", nil, "cannot be nil")
	}

	id := uuid.New()
	if doc.ID != "" {
		parsed, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, errors.NewValidationError("id", doc.ID, "must be a uuid")
		}
		id = parsed
	}

	source := doc.Source
	if source == nil {
		source = map[string]any{}
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO documents (id, type, source_id, slug, source)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+columns,
		id, doc.Type.String(), doc.SourceID, doc.Slug.Current, source)

	created, err := scanDocument(row)
	if err != nil {
		return nil, wrap("create", doc.Type.String(), doc.SourceID, err)
	}
	return created, nil
}

// Patch implements documents.Store.
func (s *Store) Patch(ctx context.Context, id string, p documents.Projection) (*documents.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.NewStoreError("patch", "", id, errors.NewNotFoundError("document", id))
	}

	source := p.Source
	if source == nil {
		source = map[string]any{}
	}

	row := s.db.QueryRow(ctx,
		`UPDATE documents SET slug = $2, source = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+columns,
		docID, p.Slug.Current, source)

	patched, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NewStoreError("patch", "", id, errors.NewNotFoundError("document", id))
	}
	if err != nil {
		return nil, wrap("patch", "", id, err)
	}
	return patched, nil
}

func scanDocument(row pgx.Row) (*documents.Document, error) {
	var (
		doc     documents.Document
		docType string
		source  map[string]any
	)
	if err := row.Scan(&doc.ID, &docType, &doc.SourceID, &doc.Slug.Current, &source, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Type = catalog.TypeTag(docType)
	doc.Source = source
	return &doc, nil
}

// wrap types driver errors, naming duplicate keys explicitly. Context errors
// pass through.
func wrap(op, docType, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.NewStoreError(op, docType, key, errors.New("document already exists"))
	}
	return errors.NewStoreError(op, docType, key, err)
}
