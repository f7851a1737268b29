package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStageFinish(ctx, &domain.StageEvent{Runner: "rfdiffusion", Duration: 2 * time.Second, Discarded: 3})
	hooks.OnStageFinish(ctx, &domain.StageEvent{Runner: "rfdiffusion", Skipped: true})
	hooks.OnStageFinish(ctx, &domain.StageEvent{Runner: "rosettascripts", Err: domain.ErrNotFound})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stages.WithLabelValues("rfdiffusion", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stages.WithLabelValues("rfdiffusion", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stages.WithLabelValues("rosettascripts", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.discarded.WithLabelValues("rfdiffusion")))

	hooks.OnMerge(ctx, &domain.MergeEvent{Prefix: "gen", Before: 0, After: 8, Bootstrap: true})
	hooks.OnMerge(ctx, &domain.MergeEvent{Prefix: "relax", Before: 8, After: 16})
	hooks.OnMerge(ctx, &domain.MergeEvent{Prefix: "bad", Before: 16, Err: &domain.JoinError{Kind: domain.ErrNoOverlap}})
	hooks.OnMerge(ctx, &domain.MergeEvent{Prefix: "bad", Before: 16, Err: &domain.JoinError{Kind: domain.ErrPipelineDrop}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.merges.WithLabelValues(MergeBootstrap)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.merges.WithLabelValues(MergeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.merges.WithLabelValues(MergeNoOverlap)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.merges.WithLabelValues(MergePipelineDrop)))
	assert.Equal(t, 16.0, testutil.ToFloat64(m.poses))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hooks := LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnStageStart(ctx, &domain.StageEvent{Runner: "script", Prefix: "s1", Poses: 2})
	hooks.OnStageFinish(ctx, &domain.StageEvent{Runner: "script", Prefix: "s1", Discarded: 1})
	hooks.OnMerge(ctx, &domain.MergeEvent{Prefix: "s1", Err: &domain.JoinError{Kind: domain.ErrNoOverlap, Prefix: "s1"}})

	out := buf.String()
	assert.Contains(t, out, "msg=stage_start")
	assert.Contains(t, out, "msg=stage_discarded_rows")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=merge_failed")
}

func TestHooks_Chain(t *testing.T) {
	var buf bytes.Buffer
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	hooks := LoggingHooks(slog.New(slog.NewTextHandler(&buf, nil))).Chain(m.Hooks())

	hooks.OnStageFinish(context.Background(), &domain.StageEvent{Runner: "script"})
	assert.Contains(t, buf.String(), "msg=stage_finish")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stages.WithLabelValues("script", "ok")))
}

func TestNewTracerProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider(&buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "stage relax")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"stage relax"`)
	assert.Contains(t, buf.String(), ServiceName)
}
