package poses

import (
	"fmt"
	"os"

	"github.com/aretw0/protflow/pkg/domain"
)

// DuplicatePoses replaces every pose by n copies in dir whose descriptions gain
// one index layer (<description>_0000 ... <description>_<n-1>). Artifacts are
// copied only if they are not already present. All other columns are carried
// over to each copy.
func (p *Poses) DuplicatePoses(dir string, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: number of duplicates must be at least 1, got %d", domain.ErrInvalidArgument, n)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	out := domain.NewTable(p.table.Columns()...)
	for i := 0; i < p.table.Len(); i++ {
		row := p.table.Row(i)
		src := domain.CellString(row[domain.ColPoses])
		for j := 0; j < n; j++ {
			dst := domain.InsertIndexLayer(src, dir, j, domain.DefaultIndexSep)
			if !fileExists(dst) {
				if err := copyFile(src, dst); err != nil {
					return err
				}
			}
			dup := make(domain.Row, len(row))
			for k, v := range row {
				dup[k] = v
			}
			dup[domain.ColPoses] = dst
			dup[domain.ColDescription] = domain.Description(dst)
			out.AppendRow(dup)
		}
	}
	if err := Validate(out); err != nil {
		return err
	}
	p.logger.Debug("duplicated poses", "dir", dir, "copies", n, "poses", out.Len())
	p.table = out
	return nil
}
