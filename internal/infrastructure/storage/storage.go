package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peterbourgon/diskv/v3"

	"github.com/scheduleworks/client/internal/ports"
)

// Store is durable key-value persistence backed by diskv. Each key is one
// JSON file under the base path; writes go straight to disk.
type Store struct {
	d *diskv.Diskv
}

var _ ports.KV = (*Store)(nil)

// New opens (creating if necessary) a store rooted at basePath.
func New(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}, nil
}

// Get reads the value stored under key into dest. The second return value
// reports whether the key was present.
func (s *Store) Get(key string, dest interface{}) (bool, error) {
	if !s.d.Has(key) {
		return false, nil
	}
	data, err := s.d.Read(key)
	if err != nil {
		return false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return true, nil
}

// Put serializes value as JSON and writes it under key.
func (s *Store) Put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil {
		return fmt.Errorf("storage: erase %s: %w", key, err)
	}
	return nil
}
