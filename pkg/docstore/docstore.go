// Package docstore provides a small versioned document store on top of
// PostgreSQL. Aggregates are stored as JSONB bodies in a single table:
//
//	CREATE TABLE documents (
//	    collection  TEXT        NOT NULL,
//	    id          TEXT        NOT NULL,
//	    version     BIGINT      NOT NULL DEFAULT 1,
//	    body        JSONB       NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (collection, id)
//	);
//
// Plain Put is last-writer-wins. PutVersioned is a compare-and-swap on the
// version column: each mutator acquires exclusive logical ownership of one
// document for the duration of its read-compute-write.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/forkpoint/forkpoint-backend/pkg/database"
	apperrors "github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
)

// ErrVersionConflict is returned by PutVersioned when the stored version no
// longer matches the expected one. Callers should re-read and retry.
var ErrVersionConflict = errors.New("document version conflict")

// Document is one stored aggregate with its concurrency token.
type Document struct {
	Collection string          `db:"collection" json:"collection"`
	ID         string          `db:"id" json:"id"`
	Version    int64           `db:"version" json:"version"`
	Body       json.RawMessage `db:"body" json:"body"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Unmarshal decodes the document body into v.
func (d *Document) Unmarshal(v any) error {
	return json.Unmarshal(d.Body, v)
}

// Store reads and writes documents.
type Store struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a new document store.
func New(db *database.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log.WithComponent("docstore")}
}

// Get returns a single document by collection and id.
func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc Document
	query := `
		SELECT collection, id, version, body, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	if err := s.db.GetContext(ctx, &doc, query, collection, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("document")
		}
		return nil, database.WrapError(err)
	}
	return &doc, nil
}

// GetAll returns every document in a collection, oldest first.
func (s *Store) GetAll(ctx context.Context, collection string) ([]*Document, error) {
	var docs []*Document
	query := `
		SELECT collection, id, version, body, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY created_at
	`
	if err := s.db.SelectContext(ctx, &docs, query, collection); err != nil {
		return nil, database.WrapError(err)
	}
	return docs, nil
}

// Put upserts a document unconditionally (last-writer-wins). The version is
// still bumped so concurrent conditional writers observe the change.
func (s *Store) Put(ctx context.Context, collection, id string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return apperrors.Internal("failed to encode document body")
	}

	query := `
		INSERT INTO documents (collection, id, version, body)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = EXCLUDED.body,
		              version = documents.version + 1,
		              updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, collection, id, raw); err != nil {
		return database.WrapError(err)
	}
	return nil
}

// PutVersioned writes a document only if the stored version still equals
// expectedVersion. An expectedVersion of 0 means "create": the write fails
// with ErrVersionConflict if the document already exists. Returns the new
// version on success.
func (s *Store) PutVersioned(ctx context.Context, collection, id string, body any, expectedVersion int64) (int64, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, apperrors.Internal("failed to encode document body")
	}

	if expectedVersion == 0 {
		query := `
			INSERT INTO documents (collection, id, version, body)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (collection, id) DO NOTHING
			RETURNING version
		`
		var version int64
		err := s.db.GetContext(ctx, &version, query, collection, id, raw)
		if err == sql.ErrNoRows {
			return 0, ErrVersionConflict
		}
		if err != nil {
			return 0, database.WrapError(err)
		}
		return version, nil
	}

	query := `
		UPDATE documents
		SET body = $4, version = version + 1, updated_at = NOW()
		WHERE collection = $1 AND id = $2 AND version = $3
		RETURNING version
	`
	var version int64
	err = s.db.GetContext(ctx, &version, query, collection, id, expectedVersion, raw)
	if err == sql.ErrNoRows {
		// Either the document vanished or someone else won the write.
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, database.WrapError(err)
	}
	return version, nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	result, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return database.WrapError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return apperrors.NotFound("document")
	}
	return nil
}

// VersionedWrite is one conditional write in a batch.
type VersionedWrite struct {
	ID              string
	Body            any
	ExpectedVersion int64
}

// PutVersionedEach applies a set of conditional writes independently.
// A failure on one document does not block the others; the returned map holds
// the error (if any) per document id. Used by the expiration sweep, which is
// best-effort across items but atomic per item.
func (s *Store) PutVersionedEach(ctx context.Context, collection string, writes []VersionedWrite) map[string]error {
	results := make(map[string]error, len(writes))
	for _, w := range writes {
		_, err := s.PutVersioned(ctx, collection, w.ID, w.Body, w.ExpectedVersion)
		results[w.ID] = err
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("collection", collection).
				Str("doc_id", w.ID).
				Msg("batched conditional write failed")
		}
	}
	return results
}
