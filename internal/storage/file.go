package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/models"
)

// FileStore keeps the document as a single JSON file. Writes go through
// a temp file in the same directory followed by a rename, so a crash
// mid-write never corrupts the committed document.
type FileStore struct {
	path string
	key  string
	log  *zap.Logger
}

// NewFileStore creates a file store under dir for the given instance key.
func NewFileStore(dir, key string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dir, fmt.Sprintf("schoolbag.%s.json", key)),
		key:  key,
		log:  log,
	}, nil
}

// Load reads the persisted document, or returns (nil, nil) when the
// file does not exist yet.
func (s *FileStore) Load(_ context.Context) (*models.Document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	if env.Version > models.DocumentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d", env.Version, models.DocumentVersion)
	}
	// Guards against a document file copied or renamed across instances.
	if env.Key != s.key {
		return nil, fmt.Errorf("document at %s belongs to instance %q, not %q", s.path, env.Key, s.key)
	}
	return env.Data, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(_ context.Context, doc *models.Document) error {
	raw, err := json.MarshalIndent(envelope{
		Version: models.DocumentVersion,
		Key:     s.key,
		Data:    doc,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".schoolbag-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	s.log.Debug("document saved", zap.String("path", s.path))
	return nil
}

// Remove deletes the persisted document. Removing a document that was
// never saved is not an error.
func (s *FileStore) Remove(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
