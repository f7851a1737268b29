package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/protflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event to logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_start", "runner", e.Runner, "prefix", e.Prefix, "poses", e.Poses)
		},
		OnStageFinish: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "stage_failed", "runner", e.Runner, "prefix", e.Prefix, "duration", e.Duration, "error", e.Err)
				return
			}
			logger.InfoContext(ctx, "stage_finish",
				"runner", e.Runner,
				"prefix", e.Prefix,
				"results", e.Results,
				"skipped", e.Skipped,
				"duration", e.Duration,
			)
			if e.Discarded > 0 {
				logger.WarnContext(ctx, "stage_discarded_rows", "runner", e.Runner, "prefix", e.Prefix, "discarded", e.Discarded)
			}
		},
		OnMerge: func(ctx context.Context, e *domain.MergeEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "merge_failed", "prefix", e.Prefix, "before", e.Before, "error", e.Err)
				return
			}
			logger.InfoContext(ctx, "merge", "prefix", e.Prefix, "before", e.Before, "after", e.After, "bootstrap", e.Bootstrap)
		},
	}
}
