package metrics

import "time"

// ResultLabel enumerates task result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build and task metrics.
type Recorder interface {
	ObserveTaskDuration(pipeline, task string, d time.Duration)
	IncTaskResult(pipeline, task string, result ResultLabel)
	ObserveBuildDuration(pipeline string, d time.Duration)
	IncBuildOutcome(pipeline string, outcome BuildOutcomeLabel)
	AddFilesWritten(pipeline string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(string, BuildOutcomeLabel)         {}
func (NoopRecorder) AddFilesWritten(string, int)                       {}
