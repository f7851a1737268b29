package poses

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/aretw0/protflow/pkg/ports"
)

// SaveScores writes the registry table. An empty path selects the default score
// file and an empty format the registry storage format. A path that does not end
// in the format's extension gets it appended. It returns the written path.
func (p *Poses) SaveScores(path, format string) (string, error) {
	if path == "" {
		path = p.scorefile
	}
	if format == "" {
		format = p.storageFormat
	}
	f, err := persistence.Lookup(format)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(path), f.Extension()) {
		path += f.Extension()
	}
	if err := persistence.Save(path, f.Name(), p.table); err != nil {
		return "", err
	}
	p.logger.Debug("saved scores", "path", path, "format", f.Name(), "poses", p.Len())
	return path, nil
}

// LoadPoses replaces the table with a persisted score file.
func (p *Poses) LoadPoses(path string) error {
	t, err := persistence.Load(path)
	if err != nil {
		return err
	}
	return p.SetPoses(FromTable(t))
}

// Load creates a registry from a persisted score file.
func Load(path string, opts ...Option) (*Poses, error) {
	t, err := persistence.Load(path)
	if err != nil {
		return nil, err
	}
	return New(FromTable(t), opts...)
}

// Checkpoint stores a snapshot of the table under key.
func (p *Poses) Checkpoint(ctx context.Context, store ports.TableStore, key string) error {
	if err := store.Save(ctx, key, p.table.Clone()); err != nil {
		return fmt.Errorf("failed to checkpoint poses %q: %w", key, err)
	}
	return nil
}

// Restore replaces the table with the snapshot stored under key.
func (p *Poses) Restore(ctx context.Context, store ports.TableStore, key string) error {
	t, err := store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to restore poses %q: %w", key, err)
	}
	return p.SetPoses(FromTable(t))
}
