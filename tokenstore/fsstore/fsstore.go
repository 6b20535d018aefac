// Package fsstore persists the token triple as a single JSON file. It is the
// durable store used by deployments that do not sit on a managed KV region.
package fsstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/zentriq/deskbridge/tokenstore"
)

var _ tokenstore.Store = (*FSStore)(nil)

const storeFilename = "tokens.json"

type FSStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// New loads (or lazily creates) the token file under storagePath.
func New(storagePath string) (*FSStore, error) {
	s := &FSStore{
		path:   filepath.Join(storagePath, storeFilename),
		values: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FSStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.values)
}

func (s *FSStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *FSStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.save()
}

// save writes the full map through a temp file and rename so a torn-down
// process never leaves a half-written token file behind.
func (s *FSStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
