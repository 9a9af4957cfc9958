// Package memory provides an in-process settings store.
package memory

import (
	"context"
	"sync"

	"github.com/coachpo/eobrowser/internal/domain/settingsstore"
	"github.com/coachpo/eobrowser/internal/infra/persistence"
)

// Store keeps values in a map. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New constructs an empty store.
func New() *Store {
	return &Store{mu: sync.RWMutex{}, values: make(map[string][]byte)}
}

// Load returns a copy of the stored value.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, settingsstore.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Save stores a copy of value.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

// Delete removes the value. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	key, err := persistence.NormaliseKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

var _ settingsstore.Store = (*Store)(nil)
