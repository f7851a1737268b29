package observability

import (
	"context"
	"errors"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "protflow"

// Merge results recorded in the merges counter.
const (
	MergeOK           = "ok"
	MergeBootstrap    = "bootstrap"
	MergeNoOverlap    = "no_overlap"
	MergePipelineDrop = "pipeline_drop"
	MergeError        = "error"
)

// Metrics records stage and merge events.
type Metrics struct {
	stages    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	discarded *prometheus.CounterVec
	merges    *prometheus.CounterVec
	poses     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_total",
			Help:      "Finished pipeline stages by runner and status.",
		}, []string{"runner", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"runner"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_rows_total",
			Help:      "Malformed tool output rows dropped while collecting results.",
		}, []string{"runner"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Reconciliations of stage results into the registry by result.",
		}, []string{"result"}),
		poses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poses",
			Help:      "Number of poses in the registry after the last merge.",
		}),
	}
	for _, c := range []prometheus.Collector{m.stages, m.duration, m.discarded, m.merges, m.poses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageFinish: func(ctx context.Context, e *domain.StageEvent) {
			status := "ok"
			switch {
			case e.Err != nil:
				status = "error"
			case e.Skipped:
				status = "skipped"
			}
			m.stages.WithLabelValues(e.Runner, status).Inc()
			m.duration.WithLabelValues(e.Runner).Observe(e.Duration.Seconds())
			if e.Discarded > 0 {
				m.discarded.WithLabelValues(e.Runner).Add(float64(e.Discarded))
			}
		},
		OnMerge: func(ctx context.Context, e *domain.MergeEvent) {
			m.merges.WithLabelValues(mergeResult(e)).Inc()
			if e.Err == nil {
				m.poses.Set(float64(e.After))
			}
		},
	}
}

func mergeResult(e *domain.MergeEvent) string {
	switch {
	case e.Err == nil && e.Bootstrap:
		return MergeBootstrap
	case e.Err == nil:
		return MergeOK
	case errors.Is(e.Err, domain.ErrNoOverlap):
		return MergeNoOverlap
	case errors.Is(e.Err, domain.ErrPipelineDrop):
		return MergePipelineDrop
	}
	return MergeError
}
