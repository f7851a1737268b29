package ports

import (
	"context"

	"github.com/aretw0/protflow/pkg/domain"
)

// TableStore defines the interface for persisting registry snapshots.
// This allows a pipeline to checkpoint its registry between stages.
type TableStore interface {
	// Save persists the table under key, replacing any previous snapshot.
	Save(ctx context.Context, key string, table *domain.Table) error

	// Load retrieves the table stored under key.
	// Returns domain.ErrNotFound if the key does not exist.
	Load(ctx context.Context, key string) (*domain.Table, error)

	// Delete removes the snapshot stored under key.
	Delete(ctx context.Context, key string) error

	// List returns all stored keys.
	List(ctx context.Context) ([]string, error)
}
