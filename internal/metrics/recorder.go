// Package metrics defines observability hooks for builds and page
// rendering, with a Prometheus implementation and a no-op default.
package metrics

import "time"

// PageOutcomeLabel enumerates per-page outcome categories.
type PageOutcomeLabel string

const (
	PageRendered PageOutcomeLabel = "rendered"
	PageSkipped  PageOutcomeLabel = "skipped"
	PageFailed   PageOutcomeLabel = "failed"
)

// BuildOutcomeLabel enumerates final build statuses.
type BuildOutcomeLabel string

const (
	BuildSuccess  BuildOutcomeLabel = "success"
	BuildDegraded BuildOutcomeLabel = "degraded"
	BuildFailed   BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for build and page metrics.
// Implementations must tolerate nil receivers so callers can inject the
// recorder optionally.
type Recorder interface {
	ObservePageDuration(outcome PageOutcomeLabel, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncPageOutcome(outcome PageOutcomeLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	SetPagesTotal(n int)
	IncWatchRebuilds()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageDuration(PageOutcomeLabel, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                  {}
func (NoopRecorder) IncPageOutcome(PageOutcomeLabel)                     {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                   {}
func (NoopRecorder) SetPagesTotal(int)                                   {}
func (NoopRecorder) IncWatchRebuilds()                                   {}
