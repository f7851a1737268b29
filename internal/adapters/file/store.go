package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/persistence"
)

// Store implements ports.TableStore using the local filesystem.
// It stores one score file per key in a configured directory.
type Store struct {
	BasePath string
	Format   persistence.Format
}

// New creates a new Store with the given base path and format name.
// If basePath is empty, it defaults to ".protflow/snapshots"; an empty format
// selects persistence.Default.
func New(basePath, format string) (*Store, error) {
	if basePath == "" {
		basePath = filepath.Join(".protflow", "snapshots")
	}
	f, err := persistence.Lookup(format)
	if err != nil {
		return nil, err
	}
	return &Store{BasePath: basePath, Format: f}, nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: key cannot be empty", domain.ErrInvalidArgument)
	}
	if strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: key %q must not contain path separators", domain.ErrInvalidArgument, key)
	}
	return filepath.Join(s.BasePath, key+s.Format.Extension()), nil
}

// Save writes the snapshot atomically (see persistence.WriteFileAtomic).
func (s *Store) Save(ctx context.Context, key string, table *domain.Table) error {
	dest, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}
	return s.Format.Save(dest, table)
}

// Load reads the snapshot stored under key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Table, error) {
	src, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: snapshot %q", domain.ErrNotFound, key)
	}
	t, err := s.Format.Load(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	return t, nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns all stored keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	ext := s.Format.Extension()
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	sort.Strings(keys)
	return keys, nil
}
