package protflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/poses"
	"github.com/aretw0/protflow/pkg/ports"
	"github.com/aretw0/protflow/pkg/runner"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of stage spans.
const TracerName = "github.com/aretw0/protflow"

// Span attribute keys.
const (
	AttrRunner    = "protflow.runner"
	AttrPrefix    = "protflow.prefix"
	AttrPoses     = "protflow.poses"
	AttrResults   = "protflow.results"
	AttrDiscarded = "protflow.discarded"
	AttrResumed   = "protflow.resumed"
)

// Pipeline runs stages against a single registry.
// It is the high-level entry point; runner.Execute is the bare equivalent
// without events, spans and checkpoints.
type Pipeline struct {
	poses  *poses.Poses
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	tracer trace.Tracer
	store  ports.TableStore
	stages []string
}

// Option defines a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom structured logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(pl *Pipeline) {
		pl.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls chain.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(pl *Pipeline) {
		pl.hooks = pl.hooks.Chain(hooks)
	}
}

// WithCheckpointStore saves the registry to store after every stage.
func WithCheckpointStore(store ports.TableStore) Option {
	return func(pl *Pipeline) {
		pl.store = store
	}
}

// WithTracerProvider emits one span per stage.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(pl *Pipeline) {
		pl.tracer = tp.Tracer(TracerName)
	}
}

// New wraps an existing registry.
func New(p *poses.Poses, opts ...Option) *Pipeline {
	pl := &Pipeline{poses: p}
	for _, opt := range opts {
		opt(pl)
	}
	if pl.logger == nil {
		pl.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if pl.tracer == nil {
		pl.tracer = noop.NewTracerProvider().Tracer(TracerName)
	}
	return pl
}

// Poses returns the registry.
func (pl *Pipeline) Poses() *poses.Poses { return pl.poses }

// Stages returns the prefixes of the stages merged so far, in order.
func (pl *Pipeline) Stages() []string {
	return append([]string(nil), pl.stages...)
}

// Run executes r under prefix and merges its results into the registry.
// If the runner or the merge fails, the registry is left unchanged. A failed
// checkpoint is reported after the merge has been applied.
func (pl *Pipeline) Run(ctx context.Context, r runner.Runner, prefix string, opts runner.RunOptions) (*runner.Output, error) {
	start := time.Now()
	before := pl.poses.Len()

	ctx, span := pl.tracer.Start(ctx, "stage "+r.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrRunner, r.Name()),
			attribute.String(AttrPrefix, prefix),
			attribute.Int(AttrPoses, before),
		),
	)
	defer span.End()

	stage := &domain.StageEvent{
		EventBase: domain.EventBase{Timestamp: start, Type: domain.EventStageStart},
		Runner:    r.Name(),
		Prefix:    prefix,
		Poses:     before,
	}
	if pl.hooks.OnStageStart != nil {
		pl.hooks.OnStageStart(ctx, stage)
	}

	out, err := pl.run(ctx, r, prefix, opts, before)

	finish := *stage
	finish.EventBase = domain.EventBase{Timestamp: time.Now(), Type: domain.EventStageFinish}
	finish.Duration = time.Since(start)
	finish.Err = err
	if out != nil {
		finish.Results = out.Len()
		finish.Discarded = out.Discarded()
		finish.Skipped = out.Resumed()
		span.SetAttributes(
			attribute.Int(AttrResults, out.Len()),
			attribute.Int(AttrDiscarded, out.Discarded()),
			attribute.Bool(AttrResumed, out.Resumed()),
		)
	}
	if pl.hooks.OnStageFinish != nil {
		pl.hooks.OnStageFinish(ctx, &finish)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (pl *Pipeline) run(ctx context.Context, r runner.Runner, prefix string, opts runner.RunOptions, before int) (*runner.Output, error) {
	out, err := runner.Execute(ctx, r, pl.poses, prefix, opts)
	if out == nil {
		// the runner itself failed, nothing was merged
		return nil, err
	}
	if pl.hooks.OnMerge != nil {
		pl.hooks.OnMerge(ctx, &domain.MergeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventMerge},
			Prefix:    prefix,
			Before:    before,
			After:     pl.poses.Len(),
			Bootstrap: before == 0,
			Err:       err,
		})
	}
	if err != nil {
		return out, err
	}
	pl.stages = append(pl.stages, prefix)

	if pl.store != nil {
		if err := pl.poses.Checkpoint(ctx, pl.store, prefix); err != nil {
			return out, err
		}
		pl.logger.Debug("registry checkpointed", "prefix", prefix)
	}
	return out, nil
}

// Restore replaces the registry with the checkpoint saved under prefix.
func (pl *Pipeline) Restore(ctx context.Context, prefix string) error {
	if pl.store == nil {
		return fmt.Errorf("%w: no checkpoint store configured", domain.ErrInvalidArgument)
	}
	if err := pl.poses.Restore(ctx, pl.store, prefix); err != nil {
		return err
	}
	pl.logger.Info("registry restored", "prefix", prefix, "poses", pl.poses.Len())
	return nil
}
