// Package rosettascripts runs Rosetta's rosetta_scripts application on every pose.
package rosettascripts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/options"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/runner"
	"github.com/cenkalti/backoff/v4"
)

const (
	// Name is the runner name.
	Name = "rosettascripts"
	// IndexLayers is the number of index layers added per pose (the nstruct index).
	IndexLayers = 1

	rawScorefile = "rosettascripts_scores.sc"
	scorefile    = "rosettascripts_scores.json"
)

// DefaultOutputWait bounds how long collection waits for output files that
// Rosetta reported in the score file but has not flushed yet.
const DefaultOutputWait = 2 * time.Minute

// RosettaScripts is a runner.Runner around rosetta_scripts.
type RosettaScripts struct {
	path       string
	protocol   string
	nstruct    int
	params     string
	jobStarter ports.JobStarter
	outputWait time.Duration
	logger     *slog.Logger
}

type Option func(*RosettaScripts)

// WithNstruct sets the number of structures generated per pose.
func WithNstruct(n int) Option {
	return func(r *RosettaScripts) {
		if n > 0 {
			r.nstruct = n
		}
	}
}

// WithParams passes a ligand params file (-extra_res_fa).
func WithParams(path string) Option {
	return func(r *RosettaScripts) {
		r.params = path
	}
}

// WithJobStarter sets the runner-level default job starter.
func WithJobStarter(js ports.JobStarter) Option {
	return func(r *RosettaScripts) {
		r.jobStarter = js
	}
}

// WithOutputWait changes DefaultOutputWait.
func WithOutputWait(d time.Duration) Option {
	return func(r *RosettaScripts) {
		if d > 0 {
			r.outputWait = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *RosettaScripts) {
		r.logger = logger
	}
}

// New creates the runner. path is the rosetta_scripts executable and protocol
// the XML protocol passed as -parser:protocol.
func New(path, protocol string, opts ...Option) (*RosettaScripts, error) {
	path, err := runner.SearchPath(path, "rosetta_scripts")
	if err != nil {
		return nil, err
	}
	if protocol == "" {
		return nil, fmt.Errorf("%w: rosetta_scripts needs an XML protocol", domain.ErrInvalidArgument)
	}
	r := &RosettaScripts{
		path:       path,
		protocol:   protocol,
		nstruct:    1,
		outputWait: DefaultOutputWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

func (r *RosettaScripts) Name() string { return Name }

// Run executes nstruct rosetta_scripts trajectories per pose. Outputs are
// renamed from r<nstruct>_<pose>_0001.pdb to <pose>_<nstruct>.pdb.
func (r *RosettaScripts) Run(ctx context.Context, p *poses.Poses, prefix string, opts runner.RunOptions) (*runner.Output, error) {
	stage, err := runner.Setup(p, prefix, opts.JobStarter, r.jobStarter)
	if err != nil {
		return nil, err
	}
	logger := r.logger.With("runner", Name, "prefix", prefix)

	rawPath := stage.Path(rawScorefile)
	scorePath := stage.Path(scorefile)
	prev, ok, err := runner.LoadExisting(scorePath, opts.Overwrite, rawPath)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("found existing scores, skipping run", "scorefile", scorePath)
		return runner.NewOutput(prev, prefix, IndexLayers, runner.WithResumed())
	}

	poseOpts, err := runner.PrepPoseOptions(p, opts.PoseOptions)
	if err != nil {
		return nil, err
	}
	var cmds []string
	for i, pose := range p.PosesList() {
		for n := 1; n <= r.nstruct; n++ {
			cmds = append(cmds, r.command(pose, stage.WorkDir, rawPath, n, opts.Options, poseOpts[i], opts.Overwrite))
		}
	}

	if err := stage.JobStarter.Start(ctx, ports.Job{
		Commands:   cmds,
		Name:       Name,
		Wait:       true,
		OutputPath: stage.WorkDir,
	}); err != nil {
		return nil, fmt.Errorf("failed to start rosetta_scripts: %w", err)
	}

	scores, discarded, err := r.collect(ctx, stage.WorkDir, rawPath, logger)
	if err != nil {
		return nil, err
	}
	if err := runner.SaveResults(scorePath, scores); err != nil {
		return nil, err
	}
	return runner.NewOutput(scores, prefix, IndexLayers, runner.WithDiscarded(discarded))
}

func (r *RosettaScripts) command(pose, outDir, rawPath string, n int, generic, override string, overwrite bool) string {
	parts := []string{
		r.path,
		"-parser:protocol", r.protocol,
		"-out:path:all", outDir,
		"-in:file:s", pose,
		"-out:prefix", fmt.Sprintf("r%s_", domain.IndexLayer(n)),
		"-out:file:scorefile", rawPath,
	}
	if opts := options.Merge(generic, override, options.DefaultSeparator); opts.Len() > 0 {
		parts = append(parts, opts.Render("-", " "))
	}
	if r.params != "" {
		parts = append(parts, "-extra_res_fa", r.params)
	}
	if overwrite {
		parts = append(parts, "-overwrite")
	}
	return strings.Join(parts, " ")
}

func (r *RosettaScripts) collect(ctx context.Context, dir, rawPath string, logger *slog.Logger) (*domain.Table, int, error) {
	scores, discarded, err := ParseScorefile(rawPath)
	if err != nil {
		return nil, 0, err
	}
	if discarded > 0 {
		logger.Warn("removed malformed lines from rosetta score file", "discarded", discarded, "scorefile", rawPath)
	}

	raw, _ := scores.Strings(domain.ColResultDescription)
	if err := r.waitForOutputs(ctx, dir, raw); err != nil {
		return nil, 0, err
	}

	descs := make([]any, len(raw))
	locs := make([]any, len(raw))
	for i, name := range raw {
		desc, err := Reindex(name)
		if err != nil {
			return nil, 0, err
		}
		src := filepath.Join(dir, name+".pdb")
		dst := filepath.Join(dir, desc+".pdb")
		if err := os.Rename(src, dst); err != nil {
			return nil, 0, fmt.Errorf("failed to rename rosetta output %s: %w", src, err)
		}
		descs[i] = desc
		locs[i] = dst
	}
	logger.Info("collected rosetta outputs", "outputs", len(raw))

	if err := scores.RenameColumn(domain.ColResultDescription, "raw_description"); err != nil {
		return nil, 0, err
	}
	if err := scores.AddColumn(domain.ColResultDescription, descs); err != nil {
		return nil, 0, err
	}
	if err := scores.SetColumn(domain.ColResultLocation, locs); err != nil {
		return nil, 0, err
	}
	return scores, discarded, nil
}

// waitForOutputs polls until every scored output exists. Rosetta sometimes
// writes the score line before the structure is on disk.
func (r *RosettaScripts) waitForOutputs(ctx context.Context, dir string, names []string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = r.outputWait

	return backoff.Retry(func() error {
		for _, name := range names {
			path := filepath.Join(dir, name+".pdb")
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("%w: rosetta output %s", domain.ErrNotFound, path)
			}
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}
