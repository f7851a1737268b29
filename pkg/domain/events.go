package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageStart  EventType = "stage_start"
	EventStageFinish EventType = "stage_finish"
	EventMerge       EventType = "merge"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StageEvent represents the start or end of a runner stage.
type StageEvent struct {
	EventBase
	Runner    string        `json:"runner"`
	Prefix    string        `json:"prefix"`
	Poses     int           `json:"poses"`
	Results   int           `json:"results,omitempty"`
	Discarded int           `json:"discarded,omitempty"`
	Skipped   bool          `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// MergeEvent represents a reconciliation of runner results into the registry.
type MergeEvent struct {
	EventBase
	Prefix    string `json:"prefix"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Bootstrap bool   `json:"bootstrap,omitempty"`
	Err       error  `json:"-"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnStageStart  func(context.Context, *StageEvent)
	OnStageFinish func(context.Context, *StageEvent)
	OnMerge       func(context.Context, *MergeEvent)
}

// Chain returns hooks that call h first and then next.
func (h LifecycleHooks) Chain(next LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageStart:  chain(h.OnStageStart, next.OnStageStart),
		OnStageFinish: chain(h.OnStageFinish, next.OnStageFinish),
		OnMerge:       chain(h.OnMerge, next.OnMerge),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
