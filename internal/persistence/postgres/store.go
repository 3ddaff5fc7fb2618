// Package postgres stores documents as JSONB rows in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tigocode/solar-back/internal/persistence"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
    collection TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    body       JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_created_idx ON documents (collection, created_at, id);`

// Store provides Postgres-backed persistence for every collection in a single table.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to url, applies the schema and returns a ready Store.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	store := NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the documents table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply documents schema: %w", err)
	}
	return nil
}

// Insert implements persistence.Store.
func (s *Store) Insert(ctx context.Context, collection, id string, body json.RawMessage) error {
	const stmt = `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`
	_, err := s.pool.Exec(ctx, stmt, collection, id, []byte(body))
	return err
}

// Get implements persistence.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	const query = `SELECT body FROM documents WHERE collection=$1 AND id=$2`

	var body []byte
	if err := s.pool.QueryRow(ctx, query, collection, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, err
	}
	return body, nil
}

// List implements persistence.Store. Documents come back in insertion order.
func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	const query = `SELECT body FROM documents WHERE collection=$1 ORDER BY created_at, id`
	return s.query(ctx, query, collection)
}

// FindBy implements persistence.Store.
func (s *Store) FindBy(ctx context.Context, collection, field, value string) ([]json.RawMessage, error) {
	const query = `SELECT body FROM documents WHERE collection=$1 AND body->>$2 = $3 ORDER BY created_at, id`
	return s.query(ctx, query, collection, field, value)
}

// Replace implements persistence.Store.
func (s *Store) Replace(ctx context.Context, collection, id string, body json.RawMessage) error {
	const stmt = `UPDATE documents SET body=$3, updated_at=NOW() WHERE collection=$1 AND id=$2`
	tag, err := s.pool.Exec(ctx, stmt, collection, id, []byte(body))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// Delete implements persistence.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]json.RawMessage, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		results = append(results, body)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
