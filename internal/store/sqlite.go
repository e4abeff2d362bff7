package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
	_ "modernc.org/sqlite"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (collection, key)
);
`

const upsertDocument = `
INSERT INTO documents (collection, key, data) VALUES (?1, ?2, ?3)
ON CONFLICT (collection, key) DO UPDATE SET data = excluded.data;
`

// SQLiteStore keeps documents in a single table of a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite db: %w", err)
	}
	if _, err := db.Exec(documentsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (models.Profile, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ?1 AND key = ?2`,
		collection, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: sqlite get %s/%s: %w", collection, key, err)
	}

	var doc models.Profile
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, false, fmt.Errorf("store: failed to unmarshal %s/%s: %w", collection, key, err)
	}
	return doc, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection, key string, doc models.Profile) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: failed to marshal %s/%s: %w", collection, key, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertDocument, collection, key, string(data)); err != nil {
		return fmt.Errorf("store: sqlite set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
