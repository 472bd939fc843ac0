package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/cwbudde/algo-nmr/nmr/persist"
)

// SQLite stores one JSON payload row per document.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database file at path. An empty path
// defaults to "nmr.db"; ":memory:" keeps the database in RAM.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "nmr.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("store: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		grp TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create documents table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Put(ctx context.Context, doc persist.Document) error {
	payload, err := encode(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(id,grp,payload) VALUES(?,?,?) ON CONFLICT(id) DO UPDATE SET grp=excluded.grp, payload=excluded.payload`,
		doc.ID, doc.Group, payload); err != nil {
		return fmt.Errorf("store: upsert %s: %w", doc.ID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (persist.Document, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return persist.Document{}, ErrNotFound
	}
	if err != nil {
		return persist.Document{}, fmt.Errorf("store: select %s: %w", id, err)
	}
	return decode(payload)
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Path returns the database file.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }
