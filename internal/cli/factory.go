// Package cli wires configuration into the components behind the protflow
// commands.
package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/protflow/internal/adapters/file"
	"github.com/aretw0/protflow/internal/config"
	"github.com/aretw0/protflow/pkg/adapters/memory"
	"github.com/aretw0/protflow/pkg/adapters/process"
	"github.com/aretw0/protflow/pkg/adapters/redis"
	"github.com/aretw0/protflow/pkg/adapters/slurm"
	"github.com/aretw0/protflow/pkg/persistence/middleware"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/registry"
	"github.com/aretw0/protflow/pkg/runner"
	"github.com/aretw0/protflow/pkg/tools/rfdiffusion"
	"github.com/aretw0/protflow/pkg/tools/rosettascripts"
	"github.com/aretw0/protflow/pkg/tools/script"
)

// NewJobStarter builds the configured job backend.
func NewJobStarter(cfg *config.Config, logger *slog.Logger) ports.JobStarter {
	js := cfg.JobStarter
	if js.Kind == config.StarterSlurm {
		return slurm.NewStarter(
			slurm.WithSbatch(js.Sbatch),
			slurm.WithMaxArray(js.MaxArray),
			slurm.WithSubmitRetries(js.SubmitRetries, js.RetryInterval),
			slurm.WithLogger(logger),
		)
	}
	return process.NewStarter(
		process.WithMaxCores(js.MaxCores),
		process.WithShell(js.Shell),
		process.WithLogger(logger),
	)
}

type rosettaArgs struct {
	Path     string `mapstructure:"path"`
	Protocol string `mapstructure:"protocol"`
	Nstruct  int    `mapstructure:"nstruct"`
	Params   string `mapstructure:"params"`
}

type rfdiffusionArgs struct {
	Script     string `mapstructure:"script"`
	Python     string `mapstructure:"python"`
	NumDesigns int    `mapstructure:"num_designs"`
	JobOptions string `mapstructure:"job_options"`
}

// NewRunners returns the builtin runners plus one script runner per entry of
// the tool definitions file. Tool paths default to the configured ones and can
// be overridden per call through the factory arguments.
func NewRunners(cfg *config.Config, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	reg.Register(rosettascripts.Name, "RosettaScripts protocol (args: protocol, nstruct, params, path)",
		func(args map[string]any) (runner.Runner, error) {
			a := rosettaArgs{Path: cfg.Tools.RosettaScripts, Nstruct: 1}
			if err := registry.Decode(args, &a); err != nil {
				return nil, err
			}
			return rosettascripts.New(a.Path, a.Protocol,
				rosettascripts.WithNstruct(a.Nstruct),
				rosettascripts.WithParams(a.Params),
				rosettascripts.WithOutputWait(cfg.Tools.RosettaOutputWait),
				rosettascripts.WithLogger(logger),
			)
		})

	reg.Register(rfdiffusion.Name, "RFdiffusion inference (args: num_designs, job_options, script, python)",
		func(args map[string]any) (runner.Runner, error) {
			a := rfdiffusionArgs{
				Script:     cfg.Tools.RFdiffusionScript,
				Python:     cfg.Tools.RFdiffusionPython,
				NumDesigns: 1,
				JobOptions: rfdiffusion.DefaultJobOptions,
			}
			if err := registry.Decode(args, &a); err != nil {
				return nil, err
			}
			return rfdiffusion.New(a.Script, a.Python,
				rfdiffusion.WithNumDesigns(a.NumDesigns),
				rfdiffusion.WithJobOptions(a.JobOptions),
				rfdiffusion.WithLogger(logger),
			)
		})

	tools, err := process.LoadTools(cfg.Tools.Definitions)
	if err != nil {
		return nil, err
	}
	for name, tool := range tools {
		if _, ok := reg.Describe(name); ok {
			logger.Warn("tool definition shadows builtin runner", "tool", name, "file", cfg.Tools.Definitions)
		}
		desc := tool.Description
		if desc == "" {
			desc = tool.CommandLine()
		}
		reg.Register(name, desc, func(args map[string]any) (runner.Runner, error) {
			if err := registry.Decode(args, &struct{}{}); err != nil {
				return nil, err
			}
			return script.New(tool, script.WithLogger(logger))
		})
	}
	return reg, nil
}

// NewSnapshotStore builds the checkpoint store. It returns a nil store when
// checkpoints are disabled. The returned close function is never nil.
func NewSnapshotStore(cfg *config.Config, logger *slog.Logger) (ports.TableStore, func() error, error) {
	noop := func() error { return nil }
	sc := cfg.Snapshot

	var (
		store   ports.TableStore
		closeFn = noop
	)
	switch sc.Backend {
	case config.SnapshotNone:
		return nil, noop, nil
	case config.SnapshotMemory:
		store = memory.NewStore()
	case config.SnapshotFile:
		dir := sc.Dir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.WorkDir, dir)
		}
		fs, err := file.New(dir, cfg.StorageFormat)
		if err != nil {
			return nil, noop, err
		}
		store = fs
	case config.SnapshotRedis:
		opts := []redis.Option{redis.WithTTL(sc.TTL)}
		rs := redis.New(sc.RedisAddr, sc.RedisPassword, sc.RedisDB, opts...)
		store, closeFn = rs, rs.Close
	default:
		return nil, noop, fmt.Errorf("unknown snapshot backend %q", sc.Backend)
	}

	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	if len(sc.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(sc.Redact))
	}
	if sc.EncryptionKey != "" {
		key, err := sc.Key()
		if err != nil {
			_ = closeFn()
			return nil, noop, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), closeFn, nil
}
