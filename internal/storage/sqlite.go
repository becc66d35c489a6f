package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps the document in a SQLite database, one row per
// instance key. WAL mode allows reads during a write; the connection
// pool is capped at one writer to avoid SQLITE_BUSY.
type SQLiteStore struct {
	db  *sql.DB
	key string
	log *zap.Logger
}

// NewSQLiteStore opens or creates the database at path and applies the
// schema. Safe to call repeatedly for the same path.
func NewSQLiteStore(path, key string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db, key: key, log: log}, nil
}

// Load reads the document row, or returns (nil, nil) when absent.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Document, error) {
	var version int
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT version, doc FROM schedule_documents WHERE key = ?", s.key,
	).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	if version > models.DocumentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d", version, models.DocumentVersion)
	}
	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Save upserts the document row. The upsert is a single statement, so
// readers never observe a partial document.
func (s *SQLiteStore) Save(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedule_documents (key, version, doc, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			version = excluded.version,
			doc = excluded.doc,
			updated_at = excluded.updated_at
	`, s.key, models.DocumentVersion, raw)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	s.log.Debug("document saved", zap.String("key", s.key))
	return nil
}

// Remove deletes the document row.
func (s *SQLiteStore) Remove(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM schedule_documents WHERE key = ?", s.key,
	); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
