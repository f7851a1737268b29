// Package script wraps an arbitrary command line as a pipeline runner.
//
// The command template is expanded once per pose. Placeholders:
//
//	{pose}         current location of the pose
//	{description}  current description of the pose
//	{output_dir}   directory the command must write its outputs to
//	{options}      merged generic and per-pose options
//
// Every file the command leaves in {output_dir} becomes one result row, except
// .json sidecars: <name>.json next to <name>.<ext> is decoded into score
// columns of that row.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/protflow/pkg/adapters/process"
	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/options"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/runner"
)

const sidecarExt = ".json"

// Script is a runner.Runner built from a tool configuration.
type Script struct {
	cfg        process.ToolConfig
	jobStarter ports.JobStarter
	logger     *slog.Logger
}

type Option func(*Script)

func WithJobStarter(js ports.JobStarter) Option {
	return func(s *Script) {
		s.jobStarter = js
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Script) {
		s.logger = logger
	}
}

// New creates a runner for cfg. The configuration needs a name and a command.
func New(cfg process.ToolConfig, opts ...Option) (*Script, error) {
	if cfg.Name == "" || cfg.Command == "" {
		return nil, fmt.Errorf("%w: script tools need a name and a command", domain.ErrInvalidArgument)
	}
	if cfg.IndexLayers < 0 {
		return nil, fmt.Errorf("%w: negative index layers for %s", domain.ErrInvalidArgument, cfg.Name)
	}
	s := &Script{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

func (s *Script) Name() string { return s.cfg.Name }

// Run expands the command for every pose and collects the output directory.
func (s *Script) Run(ctx context.Context, p *poses.Poses, prefix string, opts runner.RunOptions) (*runner.Output, error) {
	stage, err := runner.Setup(p, prefix, opts.JobStarter, s.jobStarter)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("runner", s.cfg.Name, "prefix", prefix)

	scorePath := stage.Path(s.cfg.Name + "_scores.json")
	prev, ok, err := runner.LoadExisting(scorePath, opts.Overwrite)
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("found existing scores, skipping run", "scorefile", scorePath)
		return runner.NewOutput(prev, prefix, s.cfg.IndexLayers, runner.WithResumed())
	}

	outDir, err := stage.OutputDir("files")
	if err != nil {
		return nil, err
	}
	poseOpts, err := runner.PrepPoseOptions(p, opts.PoseOptions)
	if err != nil {
		return nil, err
	}
	var cmds []string
	for i, pose := range p.PosesList() {
		cmds = append(cmds, s.Expand(pose, outDir, options.Merge(opts.Options, poseOpts[i], options.DefaultSeparator).String()))
	}

	if err := stage.JobStarter.Start(ctx, ports.Job{
		Commands:   cmds,
		Name:       s.cfg.Name,
		Wait:       true,
		OutputPath: stage.WorkDir,
	}); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", s.cfg.Name, err)
	}

	results, err := Collect(outDir)
	if err != nil {
		return nil, err
	}
	logger.Info("collected script outputs", "outputs", results.Len())
	if err := runner.SaveResults(scorePath, results); err != nil {
		return nil, err
	}
	return runner.NewOutput(results, prefix, s.cfg.IndexLayers)
}

// Expand fills the command template for one pose. Configured environment
// variables are exported before the command runs.
func (s *Script) Expand(pose, outDir, opts string) string {
	cmd := strings.NewReplacer(
		"{pose}", pose,
		"{description}", domain.Description(pose),
		"{output_dir}", outDir,
		"{options}", opts,
	).Replace(s.cfg.CommandLine())

	if len(s.cfg.Environment) == 0 {
		return cmd
	}
	keys := make([]string, 0, len(s.cfg.Environment))
	for k := range s.cfg.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assignments := make([]string, len(keys))
	for i, k := range keys {
		assignments[i] = fmt.Sprintf("%s='%s'", k, strings.ReplaceAll(s.cfg.Environment[k], "'", `'\''`))
	}
	return "export " + strings.Join(assignments, " ") + "; " + cmd
}

// Collect builds a result table from the files in dir.
func Collect(dir string) (*domain.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: output directory %s", domain.ErrNotFound, dir)
	}

	t := domain.NewTable(domain.ColResultDescription, domain.ColResultLocation)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) == sidecarExt {
			continue
		}
		path := filepath.Join(dir, name)
		row := domain.Row{}
		scores, err := readSidecar(strings.TrimSuffix(path, filepath.Ext(path)) + sidecarExt)
		if err != nil {
			return nil, err
		}
		for k, v := range scores {
			row[k] = v
		}
		row[domain.ColResultDescription] = domain.Description(path)
		row[domain.ColResultLocation] = path
		t.AppendRow(row)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: no outputs in %s; check the job logs", domain.ErrNotFound, dir)
	}
	return t, nil
}

func readSidecar(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var scores map[string]any
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, fmt.Errorf("failed to parse scores %s: %w", path, err)
	}
	return scores, nil
}
