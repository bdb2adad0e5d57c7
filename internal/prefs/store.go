package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/medisync/dose-alert/pkg/logger"
)

// Store is a file-backed key/value preference store. Values are raw
// strings; callers own any encoding (the volume key holds a JSON-encoded
// integer, the alertSound key a plain sound name).
type Store struct {
	path   string
	logger *logger.Logger

	mu     sync.Mutex
	values map[string]string
}

// NewStore creates a preference store backed by the given file. A missing
// or unreadable file starts the store empty; reads then miss and callers
// fall back to defaults.
func NewStore(path string, log *logger.Logger) *Store {
	s := &Store{
		path:   path,
		logger: log,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to read preference file, starting empty")
		}
		return s
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		log.WithError(err).Warn("Failed to parse preference file, starting empty")
		s.values = make(map[string]string)
	}

	return s
}

// Get returns the stored value for key and whether it was present
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	return value, ok
}

// Set stores a value and persists the store to disk
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.saveLocked()
}

// saveLocked writes the store to disk via a temp file rename. Caller must
// hold the mutex.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preference directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("failed to create temp preference file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close preference file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace preference file: %w", err)
	}

	return nil
}
