package poses

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/protflow/pkg/domain"
)

// ChangePosesDir points every pose at dir, keeping its file name.
//
// Without copy, dir must exist and already hold every pose; nothing is moved.
// With copy, the artifacts are copied into dir; files already present are kept
// unless overwrite is set.
func (p *Poses) ChangePosesDir(dir string, copy, overwrite bool) error {
	current := p.PosesList()
	targets := make([]any, len(current))
	for i, path := range current {
		targets[i] = filepath.Join(dir, filepath.Base(path))
	}

	if !copy {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: directory %s", domain.ErrNotFound, dir)
		}
		for _, t := range targets {
			if !fileExists(t.(string)) {
				return fmt.Errorf("%w: pose %s does not exist, set copy to copy poses into %s", domain.ErrNotFound, t, dir)
			}
		}
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		for i, src := range current {
			dst := targets[i].(string)
			if !overwrite && fileExists(dst) {
				continue
			}
			if err := copyFile(src, dst); err != nil {
				return err
			}
		}
	}

	return p.table.SetColumn(domain.ColPoses, targets)
}

// SavePoses copies the current artifacts into dir. Files already present are
// kept unless overwrite is set.
func (p *Poses) SavePoses(dir string, overwrite bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	p.logger.Info("storing poses", "dir", dir, "poses", p.Len())
	for _, src := range p.PosesList() {
		dst := filepath.Join(dir, filepath.Base(src))
		if !overwrite && fileExists(dst) {
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: pose %s", domain.ErrNotFound, src)
		}
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
