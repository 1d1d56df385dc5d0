// Package metrics provides observability hooks for lifecycle runs.
// Implementations may forward to Prometheus; the NoopRecorder allows optional
// injection when metrics are not configured.
package metrics

import "time"

// OutcomeLabel enumerates build result categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeWarning OutcomeLabel = "warning"
	OutcomeFailed  OutcomeLabel = "failed"
)

// Recorder defines observability hooks for lifecycle step and build metrics.
type Recorder interface {
	ObserveStepDuration(step string, d time.Duration)
	IncStepResult(step string, success bool)
	IncBuildOutcome(outcome OutcomeLabel)
	SetHookCounts(valid, invalid int)
	ObserveBuildDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, bool)                {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)              {}
func (NoopRecorder) SetHookCounts(int, int)                    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
