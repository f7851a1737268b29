package runner

import (
	"context"
	"fmt"

	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
)

// Runner executes one external tool against every pose of a registry.
//
// Run must not modify the registry; it returns the raw results for
// Output.ReturnPoses (see Execute).
type Runner interface {
	Name() string
	Run(ctx context.Context, p *poses.Poses, prefix string, opts RunOptions) (*Output, error)
}

// RunOptions are the per-call parameters shared by every runner.
type RunOptions struct {
	// JobStarter overrides the runner and registry defaults.
	JobStarter ports.JobStarter
	// Options is the generic option string applied to every pose.
	Options string
	// PoseOptions are per-pose option strings overriding Options.
	PoseOptions PoseOptions
	// Overwrite discards results of a previous run instead of resuming.
	Overwrite bool
}

// Execute runs r and merges its results into p.
func Execute(ctx context.Context, r Runner, p *poses.Poses, prefix string, opts RunOptions) (*Output, error) {
	out, err := r.Run(ctx, p, prefix, opts)
	if err != nil {
		return nil, fmt.Errorf("%s (prefix %q): %w", r.Name(), prefix, err)
	}
	if err := out.ReturnPoses(p); err != nil {
		return out, fmt.Errorf("%s (prefix %q): %w", r.Name(), prefix, err)
	}
	p.Logger().Info("stage merged", "runner", r.Name(), "prefix", prefix, "poses", p.Len(), "discarded", out.Discarded(), "resumed", out.Resumed())
	return out, nil
}
