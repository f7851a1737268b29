package poses

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/fasta"
)

type sourceKind int

const (
	sourceEmpty sourceKind = iota
	sourceGlob
	sourceFile
	sourceFiles
	sourceTable
)

// Source describes the initial poses of a registry. The zero value is an empty
// registry.
type Source struct {
	kind    sourceKind
	dir     string
	pattern string
	paths   []string
	table   *domain.Table
}

// Glob selects the files in dir matching pattern. No match is an error.
func Glob(dir, pattern string) Source {
	return Source{kind: sourceGlob, dir: dir, pattern: pattern}
}

// File selects a single file, which must exist.
func File(path string) Source {
	return Source{kind: sourceFile, paths: []string{path}}
}

// Files selects a list of files, which must all exist.
func Files(paths ...string) Source {
	return Source{kind: sourceFiles, paths: append([]string(nil), paths...)}
}

// FromTable uses an existing registry table, such as a restored score file.
func FromTable(t *domain.Table) Source {
	return Source{kind: sourceTable, table: t}
}

func (p *Poses) build(src Source) (*domain.Table, error) {
	if src.kind == sourceTable {
		if src.table == nil {
			return nil, fmt.Errorf("%w: nil table", domain.ErrInvalidArgument)
		}
		t := src.table.Clone()
		if err := Validate(t); err != nil {
			return nil, err
		}
		return t, nil
	}

	paths, err := resolvePaths(src)
	if err != nil {
		return nil, err
	}
	paths, err = p.explodeFastas(paths)
	if err != nil {
		return nil, err
	}

	t := domain.NewTable(domain.MandatoryColumns()...)
	for _, path := range paths {
		t.AppendRow(domain.Row{
			domain.ColInputPoses:  path,
			domain.ColPoses:       path,
			domain.ColDescription: domain.Description(path),
		})
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

func resolvePaths(src Source) ([]string, error) {
	switch src.kind {
	case sourceEmpty:
		return nil, nil
	case sourceGlob:
		matches, err := filepath.Glob(filepath.Join(src.dir, src.pattern))
		if err != nil {
			return nil, fmt.Errorf("%w: bad glob pattern %q: %v", domain.ErrInvalidArgument, src.pattern, err)
		}
		var files []string
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: no %s files were found in %s", domain.ErrNotFound, src.pattern, src.dir)
		}
		sort.Strings(files)
		return files, nil
	case sourceFile, sourceFiles:
		for _, path := range src.paths {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				return nil, fmt.Errorf("%w: pose file %s", domain.ErrNotFound, path)
			}
		}
		return src.paths, nil
	}
	return nil, fmt.Errorf("%w: unknown source", domain.ErrInvalidArgument)
}

// explodeFastas replaces every multi-record FASTA input with one file per record
// under work_dir/input_fastas_split, keeping the position in the input order.
func (p *Poses) explodeFastas(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		isFasta, err := fasta.Sniff(path)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
		}
		if !isFasta {
			out = append(out, path)
			continue
		}
		records, err := fasta.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if len(records) <= 1 {
			out = append(out, path)
			continue
		}
		split, err := p.splitFasta(path, records)
		if err != nil {
			return nil, err
		}
		out = append(out, split...)
	}
	return out, nil
}

func (p *Poses) splitFasta(path string, records []fasta.Record) ([]string, error) {
	if p.workDir == "" {
		return nil, fmt.Errorf("%w: splitting multi-record fasta %s requires a work directory", domain.ErrInvalidArgument, path)
	}
	p.logger.Warn("multi-record fasta input detected, splitting into one pose per record",
		"path", path, "records", len(records))

	dir := filepath.Join(p.workDir, domain.SplitFastaDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create fasta split directory: %w", err)
	}

	seen := make(map[string]int, len(records))
	out := make([]string, 0, len(records))
	for i, rec := range records {
		if prev, ok := seen[rec.ID]; ok {
			return nil, &domain.SchemaError{
				Reason: fmt.Sprintf("fasta %s contains record id %q more than once", path, rec.ID),
				Rows:   []int{prev, i},
			}
		}
		seen[rec.ID] = i

		target := filepath.Join(dir, rec.ID+".fa")
		// content is re-checked on every call so stale splits are rewritten
		if !fasta.Matches(target, rec) {
			if err := fasta.WriteFile(target, rec); err != nil {
				return nil, fmt.Errorf("failed to write split fasta: %w", err)
			}
		}
		out = append(out, target)
	}
	return out, nil
}
