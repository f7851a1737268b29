// Package memory provides an in-memory TableStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/protflow/pkg/domain"
)

// Store implements ports.TableStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Table
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Table),
	}
}

// Save keeps a deep copy of the table.
func (s *Store) Save(ctx context.Context, key string, table *domain.Table) error {
	copied := table.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored snapshot.
func (s *Store) Load(ctx context.Context, key string) (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: snapshot %q", domain.ErrNotFound, key)
	}
	return table.Clone(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
