// Package jsonfile persists connection configuration as a single JSON
// document.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/willibrandon/sqlbook/internal/db/models"
	"github.com/willibrandon/sqlbook/internal/logger"
)

// Store reads and writes the connection list at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted connection list. A missing or unreadable
// document yields an empty list.
func (s *Store) Load() []models.ConnectionConfig {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No saved connections", "path", s.path)
		} else {
			logger.Error("Failed to read saved connections", "path", s.path, "error", err)
		}
		return []models.ConnectionConfig{}
	}

	var configs []models.ConnectionConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		logger.Error("Saved connections are malformed, starting empty", "path", s.path, "error", err)
		return []models.ConnectionConfig{}
	}
	if configs == nil {
		configs = []models.ConnectionConfig{}
	}

	logger.Debug("Loaded saved connections", "path", s.path, "count", len(configs))
	return configs
}

// Save overwrites the document with configs. The data is written to a
// temporary file in the same directory and renamed over the target.
func (s *Store) Save(configs []models.ConnectionConfig) error {
	if configs == nil {
		configs = []models.ConnectionConfig{}
	}

	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode connections: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write connections: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync connections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
