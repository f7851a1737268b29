// Package rfdiffusion runs RFdiffusion inference for every pose.
package rfdiffusion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/options"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/runner"
)

const (
	Name        = "rfdiffusion"
	IndexLayers = 1

	// DefaultJobOptions requests one GPU per task.
	DefaultJobOptions = "--gpus-per-node 1 -c1"

	scorefile = "rfdiffusion_scores.json"
)

// Inference keys set per pose unless the options override them.
const (
	KeyOutputPrefix = "inference.output_prefix"
	KeyInputPDB     = "inference.input_pdb"
	KeyNumDesigns   = "inference.num_designs"
)

// RFdiffusion is a runner.Runner around scripts/run_inference.py.
type RFdiffusion struct {
	script     string
	python     string
	designs    int
	jobOptions string
	jobStarter ports.JobStarter
	logger     *slog.Logger
}

type Option func(*RFdiffusion)

// WithNumDesigns sets inference.num_designs for every pose.
func WithNumDesigns(n int) Option {
	return func(r *RFdiffusion) {
		if n > 0 {
			r.designs = n
		}
	}
}

// WithJobOptions replaces DefaultJobOptions.
func WithJobOptions(opts string) Option {
	return func(r *RFdiffusion) {
		r.jobOptions = opts
	}
}

func WithJobStarter(js ports.JobStarter) Option {
	return func(r *RFdiffusion) {
		r.jobStarter = js
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *RFdiffusion) {
		r.logger = logger
	}
}

// New creates the runner for the inference script, run with the given python
// interpreter.
func New(script, python string, opts ...Option) (*RFdiffusion, error) {
	script, err := runner.SearchPath(script, "rfdiffusion script")
	if err != nil {
		return nil, err
	}
	if python == "" {
		return nil, fmt.Errorf("%w: python path for rfdiffusion is not set in the configuration", domain.ErrInvalidArgument)
	}
	r := &RFdiffusion{
		script:     script,
		python:     python,
		designs:    1,
		jobOptions: DefaultJobOptions,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

func (r *RFdiffusion) Name() string { return Name }

// Run diffuses every pose. Options are hydra style key=value assignments.
// Designs land in <stage>/output_pdbs and are renumbered from 0-based to
// 1-based zero padded indexes.
func (r *RFdiffusion) Run(ctx context.Context, p *poses.Poses, prefix string, opts runner.RunOptions) (*runner.Output, error) {
	stage, err := runner.Setup(p, prefix, opts.JobStarter, r.jobStarter)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With("runner", Name, "prefix", prefix)
	pdbDir, err := stage.OutputDir("pdbs")
	if err != nil {
		return nil, err
	}

	scorePath := stage.Path(scorefile)
	prev, ok, err := runner.LoadExisting(scorePath, opts.Overwrite)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("found existing scores, skipping run", "scorefile", scorePath)
		return runner.NewOutput(prev, prefix, IndexLayers, runner.WithResumed())
	}
	if err := clearOutputs(pdbDir); err != nil {
		return nil, err
	}

	poseOpts, err := runner.PrepPoseOptions(p, opts.PoseOptions)
	if err != nil {
		return nil, err
	}
	poseList := p.PosesList()
	cmds := make([]string, len(poseList))
	inputs := make(map[string]string, len(poseList))
	for i, pose := range poseList {
		cmds[i] = r.command(pose, pdbDir, opts.Options, poseOpts[i])
		inputs[domain.Description(pose)] = pose
	}

	if err := stage.JobStarter.Start(ctx, ports.Job{
		Commands:   cmds,
		Options:    r.jobOptions,
		Name:       Name,
		Wait:       true,
		OutputPath: stage.WorkDir,
	}); err != nil {
		return nil, fmt.Errorf("failed to start rfdiffusion: %w", err)
	}

	scores, err := collect(pdbDir, inputs)
	if err != nil {
		return nil, err
	}
	logger.Info("collected rfdiffusion designs", "designs", scores.Len(), "scorefile", scorePath)
	if err := runner.SaveResults(scorePath, scores); err != nil {
		return nil, err
	}
	return runner.NewOutput(scores, prefix, IndexLayers)
}

func (r *RFdiffusion) command(pose, pdbDir, generic, override string) string {
	opts := options.ParseAssignments(generic, override)
	if _, ok := opts.Get(KeyOutputPrefix); !ok {
		opts.Set(KeyOutputPrefix, filepath.Join(pdbDir, domain.Description(pose)))
	}
	if _, ok := opts.Get(KeyInputPDB); !ok {
		opts.Set(KeyInputPDB, pose)
	}
	if _, ok := opts.Get(KeyNumDesigns); !ok {
		opts.Set(KeyNumDesigns, strconv.Itoa(r.designs))
	}
	return strings.Join([]string{r.python, r.script, opts.Render("", "=")}, " ")
}

// clearOutputs removes designs of an earlier, unfinished run.
func clearOutputs(dir string) error {
	pdbs, err := filepath.Glob(filepath.Join(dir, "*.pdb"))
	if err != nil {
		return err
	}
	for _, pdb := range pdbs {
		for _, f := range []string{pdb, strings.TrimSuffix(pdb, ".pdb") + ".trb"} {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove previous design: %w", err)
			}
		}
	}
	return nil
}

// collect renames designs to 1-based indexes and builds the result table.
// inputs maps pose descriptions to their locations.
func collect(dir string, inputs map[string]string) (*domain.Table, error) {
	pdbs, err := filepath.Glob(filepath.Join(dir, "*.pdb"))
	if err != nil {
		return nil, err
	}
	if len(pdbs) == 0 {
		return nil, fmt.Errorf("%w: no .pdb files in the rfdiffusion output directory %s; check the job logs", domain.ErrNotFound, dir)
	}
	sort.Strings(pdbs)

	type design struct{ old, new string }
	designs := make([]design, 0, len(pdbs))
	for _, pdb := range pdbs {
		old := domain.Description(pdb)
		renamed, err := Reindex(old)
		if err != nil {
			return nil, err
		}
		designs = append(designs, design{old: old, new: renamed})
	}
	// Highest indexes first so a rename never lands on a file still to be renamed.
	sort.SliceStable(designs, func(i, j int) bool { return designs[i].old > designs[j].old })
	for _, d := range designs {
		matches, err := filepath.Glob(filepath.Join(dir, d.old+".*"))
		if err != nil {
			return nil, err
		}
		for _, f := range matches {
			if err := os.Rename(f, filepath.Join(dir, d.new+filepath.Ext(f))); err != nil {
				return nil, fmt.Errorf("failed to rename design %s: %w", f, err)
			}
		}
	}
	sort.Slice(designs, func(i, j int) bool { return designs[i].new < designs[j].new })

	t := domain.NewTable(domain.ColResultDescription, domain.ColResultLocation, "input_pdb", "trb")
	for _, d := range designs {
		row := domain.Row{
			domain.ColResultDescription: d.new,
			domain.ColResultLocation:    filepath.Join(dir, d.new+".pdb"),
			"input_pdb":                 inputs[domain.StripIndexLayers(d.new, IndexLayers, domain.DefaultIndexSep)],
		}
		if trb := filepath.Join(dir, d.new+".trb"); fileExists(trb) {
			row["trb"] = trb
		}
		t.AppendRow(row)
	}
	return t, nil
}

// Reindex turns RFdiffusion's 0-based design suffix into a 1-based padded
// index layer: pose_0 becomes pose_0001.
func Reindex(desc string) (string, error) {
	i := strings.LastIndex(desc, domain.DefaultIndexSep)
	if i < 0 {
		return "", fmt.Errorf("%w: design %q has no index", domain.ErrInvalidArgument, desc)
	}
	n, err := strconv.Atoi(desc[i+1:])
	if err != nil {
		return "", fmt.Errorf("%w: design %q has no numeric index", domain.ErrInvalidArgument, desc)
	}
	return desc[:i] + domain.DefaultIndexSep + domain.IndexLayer(n+1), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
