// Package sqlite stores documents in an embedded SQLite database for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tigocode/solar-back/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    body       TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);`

// Store wraps a SQLite connection holding every collection in one table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dataSourceName and applies the schema.
func Open(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Insert implements persistence.Store.
func (s *Store) Insert(ctx context.Context, collection, id string, body json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`, collection, id, string(body))
	return err
}

// Get implements persistence.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(body), nil
}

// List implements persistence.Store.
func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	return s.query(ctx, `SELECT body FROM documents WHERE collection = ? ORDER BY seq`, collection)
}

// FindBy implements persistence.Store.
func (s *Store) FindBy(ctx context.Context, collection, field, value string) ([]json.RawMessage, error) {
	return s.query(ctx,
		`SELECT body FROM documents WHERE collection = ? AND json_extract(body, ?) = ? ORDER BY seq`,
		collection, "$."+field, value)
}

// Replace implements persistence.Store.
func (s *Store) Replace(ctx context.Context, collection, id string, body json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
		string(body), collection, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete implements persistence.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]json.RawMessage, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		results = append(results, json.RawMessage(body))
	}
	return results, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
