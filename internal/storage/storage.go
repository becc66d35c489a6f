// Package storage provides the durable document store behind the
// schedule coordinator: one JSON document per instance key, with
// file, SQLite and Postgres backends.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/config"
	"github.com/JunoAX/schoolbag-go/internal/models"
)

// Store persists a single document keyed by a stable instance id.
// Load returns (nil, nil) when nothing has been persisted yet. Save must
// be crash-safe: a failed write leaves the previously committed document
// intact.
type Store interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	Remove(ctx context.Context) error
	Close() error
}

// envelope is the persisted wrapper around the document, carrying the
// schema version so future layouts can migrate on load and the owning
// instance key, which load checks against the store's own key.
type envelope struct {
	Version int              `json:"version"`
	Key     string           `json:"key"`
	Data    *models.Document `json:"data"`
}

// Open builds the store selected by the configuration.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendFile:
		return NewFileStore(cfg.Dir, cfg.Key, log)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.Path, cfg.Key, log)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN, cfg.Key, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
