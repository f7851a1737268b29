package middleware_test

import (
	"context"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Table
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Table),
	}
}

func (s *MockStore) Save(ctx context.Context, key string, table *domain.Table) error {
	s.data[key] = table
	return nil
}

func (s *MockStore) Load(ctx context.Context, key string) (*domain.Table, error) {
	table, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return table, nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.TableStore = (*MockStore)(nil)
