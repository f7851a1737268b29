package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/protflow"
	"github.com/aretw0/protflow/internal/config"
	"github.com/aretw0/protflow/internal/logging"
	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/observability"
	"github.com/aretw0/protflow/pkg/persistence"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the configuration and shared components of one CLI invocation.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	jobStarter ports.JobStarter
}

// NewApp builds the logger and job starter for cfg.
func NewApp(cfg *config.Config, logOut io.Writer) (*App, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWriter(logOut, level)
	return &App{
		Config:     cfg,
		Logger:     logger,
		jobStarter: NewJobStarter(cfg, logger),
	}, nil
}

// WithJobStarter replaces the configured job backend.
func (a *App) WithJobStarter(js ports.JobStarter) *App {
	a.jobStarter = js
	return a
}

func (a *App) poseOptions() []poses.Option {
	return []poses.Option{
		poses.WithWorkDir(a.Config.WorkDir),
		poses.WithStorageFormat(a.Config.StorageFormat),
		poses.WithJobStarter(a.jobStarter),
		poses.WithLogger(a.Logger),
	}
}

// Scorefile is the registry file of the configured work dir.
func (a *App) Scorefile() (string, error) {
	return poses.DefaultScorefile(a.Config.WorkDir, a.Config.StorageFormat)
}

// InitRegistry creates a registry from inputs and saves it to the work dir.
// A single directory input is globbed with pattern and a single file in a
// known score format is loaded as a table; anything else is a list of pose
// files.
func (a *App) InitRegistry(inputs []string, pattern string) (*poses.Poses, string, error) {
	src, err := sourceFor(inputs, pattern)
	if err != nil {
		return nil, "", err
	}
	p, err := poses.New(src, a.poseOptions()...)
	if err != nil {
		return nil, "", err
	}
	path, err := p.SaveScores("", "")
	if err != nil {
		return nil, "", err
	}
	a.Logger.Info("registry initialized", "poses", p.Len(), "scorefile", path)
	return p, path, nil
}

func sourceFor(inputs []string, pattern string) (poses.Source, error) {
	if len(inputs) == 0 {
		return poses.Source{}, fmt.Errorf("%w: no inputs", domain.ErrInvalidArgument)
	}
	if len(inputs) == 1 {
		info, err := os.Stat(inputs[0])
		if err != nil {
			return poses.Source{}, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		if info.IsDir() {
			return poses.Glob(inputs[0], pattern), nil
		}
		if _, err := persistence.ForPath(inputs[0]); err != nil {
			return poses.File(inputs[0]), nil
		}
		t, err := persistence.Load(inputs[0])
		if err != nil {
			return poses.Source{}, err
		}
		return poses.FromTable(t), nil
	}
	return poses.Files(inputs...), nil
}

// OpenRegistry loads the registry from path, or from the work dir score file
// when path is empty.
func (a *App) OpenRegistry(path string) (*poses.Poses, error) {
	if path == "" {
		var err error
		if path, err = a.Scorefile(); err != nil {
			return nil, err
		}
	}
	p, err := poses.Load(path, a.poseOptions()...)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	return p, nil
}

// StageOptions are the inputs of a single `protflow run`.
type StageOptions struct {
	Tool   string
	Prefix string
	// Args configure the runner, e.g. nstruct or num_designs.
	Args map[string]any
	// Options is the generic option string of the tool.
	Options string
	// PoseOptionsColumn names a registry column with per-pose options.
	PoseOptionsColumn string
	Overwrite         bool
	// Registry overrides the work dir score file.
	Registry string
}

// RunStage loads the registry, runs one tool and saves the merged registry.
func (a *App) RunStage(ctx context.Context, opts StageOptions) (*runner.Output, error) {
	if opts.Prefix == "" {
		opts.Prefix = opts.Tool
	}
	runners, err := NewRunners(a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	r, err := runners.New(opts.Tool, opts.Args)
	if err != nil {
		return nil, err
	}
	p, err := a.OpenRegistry(opts.Registry)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := NewSnapshotStore(a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeStore() }()

	promRegistry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(promRegistry)
	if err != nil {
		return nil, err
	}
	pipeOpts := []protflow.Option{
		protflow.WithLogger(a.Logger),
		protflow.WithLifecycleHooks(observability.LoggingHooks(a.Logger)),
		protflow.WithLifecycleHooks(metrics.Hooks()),
	}
	if store != nil {
		pipeOpts = append(pipeOpts, protflow.WithCheckpointStore(store))
	}

	shutdown, err := a.tracing(&pipeOpts)
	if err != nil {
		return nil, err
	}
	defer shutdown()

	runOpts := runner.RunOptions{Options: opts.Options, Overwrite: opts.Overwrite}
	if opts.PoseOptionsColumn != "" {
		runOpts.PoseOptions = runner.FromColumn(opts.PoseOptionsColumn)
	}
	out, err := protflow.New(p, pipeOpts...).Run(ctx, r, opts.Prefix, runOpts)
	if ferr := a.writeMetrics(promRegistry); ferr != nil {
		a.Logger.Warn("failed to write metrics", "file", a.Config.Metrics.File, "error", ferr)
	}
	if err != nil {
		return out, err
	}

	path, err := p.SaveScores(opts.Registry, "")
	if err != nil {
		return out, err
	}
	a.Logger.Info("registry saved", "scorefile", path, "poses", p.Len())
	return out, nil
}

func (a *App) tracing(opts *[]protflow.Option) (func(), error) {
	path := a.Config.Tracing.File
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tp, err := observability.NewTracerProvider(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	*opts = append(*opts, protflow.WithTracerProvider(tp))
	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			a.Logger.Warn("failed to flush spans", "error", err)
		}
		f.Close()
	}, nil
}

func (a *App) writeMetrics(g prometheus.Gatherer) error {
	path := a.Config.Metrics.File
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, g)
}

// ParseArgs turns key=value assignments into factory arguments. Values stay
// strings; the runner factories convert them.
func ParseArgs(assignments []string) (map[string]any, error) {
	args := make(map[string]any, len(assignments))
	for _, s := range assignments {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", domain.ErrInvalidArgument, s)
		}
		args[strings.TrimSpace(k)] = v
	}
	return args, nil
}
