package storefake

import (
	"context"
	"sync"

	"github.com/zentriq/deskbridge/tokenstore"
)

var _ tokenstore.Store = (*FakeStore)(nil)

// FakeStore is a thread-safe in-memory token store for tests.
type FakeStore struct {
	values map[string]string
	puts   int
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (s *FakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *FakeStore) Put(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = value
	s.puts++
	return nil
}

// Seed replaces the store contents without counting as writes.
func (s *FakeStore) Seed(values map[string]string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values = make(map[string]string, len(values))
	for k, v := range values {
		s.values[k] = v
	}
	s.puts = 0
}

// Values returns a copy of the current store contents.
func (s *FakeStore) Values() map[string]string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Puts returns the number of writes since construction or the last Seed.
func (s *FakeStore) Puts() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.puts
}
