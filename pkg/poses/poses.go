// Package poses implements the pose registry: the table of tracked entities of a
// pipeline together with the working directory it owns.
//
// Every row carries the original input path (input_poses), the current artifact
// location (poses) and the current description (poses_description), the unique
// key derived from the location's file name. Stage results are added as
// <prefix>_<column> columns by the runner package.
package poses

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/aretw0/protflow/pkg/ports"
)

// Poses is the registry of a pipeline. It is not safe for concurrent use.
type Poses struct {
	table         *domain.Table
	workDir       string
	scoresDir     string
	storageFormat string
	scorefile     string
	jobStarter    ports.JobStarter
	logger        *slog.Logger
}

// Option defines a functional option for configuring the registry.
type Option func(*Poses)

// WithWorkDir sets the working directory. It is created if missing, together with
// its scores subdirectory.
func WithWorkDir(dir string) Option {
	return func(p *Poses) {
		p.workDir = dir
	}
}

// WithStorageFormat sets the default score file format (see persistence.Names).
func WithStorageFormat(name string) Option {
	return func(p *Poses) {
		p.storageFormat = name
	}
}

// WithJobStarter sets the registry-level default job starter.
func WithJobStarter(js ports.JobStarter) Option {
	return func(p *Poses) {
		p.jobStarter = js
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poses) {
		p.logger = logger
	}
}

// New creates a registry from src.
func New(src Source, opts ...Option) (*Poses, error) {
	p := &Poses{storageFormat: persistence.Default}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	f, err := persistence.Lookup(p.storageFormat)
	if err != nil {
		return nil, err
	}
	p.storageFormat = f.Name()

	if err := p.setWorkDir(p.workDir); err != nil {
		return nil, err
	}
	p.scorefile = defaultScorefile(p.workDir, f)

	if err := p.SetPoses(src); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Poses) setWorkDir(dir string) error {
	p.workDir = dir
	if dir == "" {
		p.scoresDir = ""
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		p.logger.Info("creating work directory", "dir", dir)
	}
	scores := filepath.Join(dir, domain.ScoresDirName)
	if err := os.MkdirAll(scores, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	p.scoresDir = scores
	return nil
}

// DefaultScorefile returns the path SaveScores uses for a registry with this
// work dir and storage format.
func DefaultScorefile(workDir, format string) (string, error) {
	f, err := persistence.Lookup(format)
	if err != nil {
		return "", err
	}
	return defaultScorefile(workDir, f), nil
}

// defaultScorefile is work_dir/scores/<name of work_dir>_scores.<ext>, or
// ./poses_scores.<ext> without a work dir.
func defaultScorefile(workDir string, f persistence.Format) string {
	if workDir == "" {
		return "poses_scores" + f.Extension()
	}
	name := filepath.Base(filepath.Clean(workDir))
	return filepath.Join(workDir, domain.ScoresDirName, name+"_scores"+f.Extension())
}

// SetPoses replaces the table with the poses described by src.
func (p *Poses) SetPoses(src Source) error {
	t, err := p.build(src)
	if err != nil {
		return err
	}
	p.table = t
	return nil
}

// Replace swaps in a new table, typically the result of a reconciliation.
// The table must satisfy the registry schema.
func (p *Poses) Replace(t *domain.Table) error {
	if err := Validate(t); err != nil {
		return err
	}
	p.table = t
	return nil
}

// Table returns a copy of the registry table.
func (p *Poses) Table() *domain.Table { return p.table.Clone() }

// Len returns the number of poses.
func (p *Poses) Len() int { return p.table.Len() }

// WorkDir returns the working directory, or "" if none is set.
func (p *Poses) WorkDir() string { return p.workDir }

// ScoresDir returns work_dir/scores, or "" without a work dir.
func (p *Poses) ScoresDir() string { return p.scoresDir }

// Scorefile returns the default score file path.
func (p *Poses) Scorefile() string { return p.scorefile }

// StorageFormat returns the default score file format.
func (p *Poses) StorageFormat() string { return p.storageFormat }

// JobStarter returns the registry-level default job starter, possibly nil.
func (p *Poses) JobStarter() ports.JobStarter { return p.jobStarter }

// SetJobStarter replaces the registry-level default job starter.
func (p *Poses) SetJobStarter(js ports.JobStarter) { p.jobStarter = js }

// Logger returns the registry logger.
func (p *Poses) Logger() *slog.Logger { return p.logger }

// Descriptions returns the current descriptions in row order.
func (p *Poses) Descriptions() []string {
	out, _ := p.table.Strings(domain.ColDescription)
	return out
}

// PosesList returns the current artifact locations in row order.
func (p *Poses) PosesList() []string {
	out, _ := p.table.Strings(domain.ColPoses)
	return out
}

// Column returns a registry column in row order.
func (p *Poses) Column(name string) ([]any, error) {
	return p.table.Column(name)
}

// CheckPrefix fails with domain.ErrColumnCollision if prefix is already a column
// or the root of <prefix>_<column> columns.
func (p *Poses) CheckPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: empty prefix", domain.ErrInvalidArgument)
	}
	if p.table.HasColumnRoot(prefix, domain.DefaultIndexSep) {
		return fmt.Errorf("%w: prefix %q is already taken in the poses table", domain.ErrColumnCollision, prefix)
	}
	return nil
}

// Validate checks the registry schema of t: mandatory columns present, unique
// descriptions and every description equal to Description(location).
func Validate(t *domain.Table) error {
	if missing := t.MissingColumns(domain.MandatoryColumns()...); len(missing) > 0 {
		return &domain.SchemaError{Reason: fmt.Sprintf("table does not contain mandatory poses columns %v", missing)}
	}
	descs, _ := t.Strings(domain.ColDescription)
	locs, _ := t.Strings(domain.ColPoses)

	var mismatched []int
	for i := range descs {
		if descs[i] != domain.Description(locs[i]) {
			mismatched = append(mismatched, i)
		}
	}
	if len(mismatched) > 0 {
		return &domain.SchemaError{Reason: "poses_description does not match the file name of poses", Rows: mismatched}
	}

	if dups := domain.DuplicateValues(descs); len(dups) > 0 {
		var rows []int
		dup := make(map[string]bool, len(dups))
		for _, d := range dups {
			dup[d] = true
		}
		for i, d := range descs {
			if dup[d] {
				rows = append(rows, i)
			}
		}
		return &domain.SchemaError{Reason: fmt.Sprintf("duplicate poses descriptions %v", dups), Rows: rows}
	}
	return nil
}
