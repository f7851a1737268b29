package runner

import (
	"fmt"
	"os"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/persistence"
)

// LoadExisting returns the results persisted by a previous run at path.
// With overwrite set, the file and any extra files are removed instead and
// nothing is returned.
func LoadExisting(path string, overwrite bool, extra ...string) (*domain.Table, bool, error) {
	if overwrite {
		for _, f := range append([]string{path}, extra...) {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				return nil, false, fmt.Errorf("failed to remove previous results: %w", err)
			}
		}
		return nil, false, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	t, err := persistence.Load(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load previous results: %w", err)
	}
	return t, true, nil
}

// SaveResults persists raw results so a later run can resume from them.
func SaveResults(path string, t *domain.Table) error {
	return persistence.Save(path, "", t)
}
