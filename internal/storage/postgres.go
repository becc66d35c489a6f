package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/models"
)

// PostgresStore keeps the document in a JSONB column, one row per
// instance key.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
	log  *zap.Logger
}

// NewPostgresStore connects to the database and ensures the document
// table exists.
func NewPostgresStore(ctx context.Context, dsn, key string, log *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	config.MaxConns = 5
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schedule_documents (
			key        TEXT PRIMARY KEY,
			version    INT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create document table: %w", err)
	}

	return &PostgresStore{pool: pool, key: key, log: log}, nil
}

// Load reads the document row, or returns (nil, nil) when absent.
func (s *PostgresStore) Load(ctx context.Context) (*models.Document, error) {
	var version int
	var raw []byte
	err := s.pool.QueryRow(ctx,
		"SELECT version, doc FROM schedule_documents WHERE key = $1", s.key,
	).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
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

// Save upserts the document row.
func (s *PostgresStore) Save(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO schedule_documents (key, version, doc, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			version = EXCLUDED.version,
			doc = EXCLUDED.doc,
			updated_at = NOW()
	`, s.key, models.DocumentVersion, raw)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	s.log.Debug("document saved", zap.String("key", s.key))
	return nil
}

// Remove deletes the document row.
func (s *PostgresStore) Remove(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx,
		"DELETE FROM schedule_documents WHERE key = $1", s.key,
	); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
