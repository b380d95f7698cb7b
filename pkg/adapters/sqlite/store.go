// Package sqlite persists documents in a SQLite database using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/migrate"
	_ "modernc.org/sqlite"
)

// Store implements ports.DocumentStore on a single SQLite file.
type Store struct {
	conn *sql.DB
}

// Open creates (or opens) the database at path and applies the table migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL DEFAULT 1,
			body_json TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save upserts the document. The schema version is kept in its own column
// so stale documents can be found without parsing bodies.
func (s *Store) Save(ctx context.Context, id string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO documents (id, schema_version, body_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			body_json = excluded.body_json,
			updated_at = excluded.updated_at`,
		id, migrate.Version(doc), string(body), now, now)
	if err != nil {
		return fmt.Errorf("save document %s: %w", id, err)
	}
	return nil
}

// Load reads the document body.
func (s *Store) Load(ctx context.Context, id string) (map[string]any, error) {
	var body string
	err := s.conn.QueryRowContext(ctx, `SELECT body_json FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	doc, err := codec.UnmarshalRaw([]byte(body), codec.JSON)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, nil
}

// Delete removes the document row.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// List returns document IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.queryIDs(ctx, `SELECT id FROM documents ORDER BY id`)
}

// ListOutdated returns the IDs of documents stored below the current schema version.
func (s *Store) ListOutdated(ctx context.Context) ([]string, error) {
	return s.queryIDs(ctx, `SELECT id FROM documents WHERE schema_version < ? ORDER BY id`, migrate.CurrentVersion)
}

func (s *Store) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
