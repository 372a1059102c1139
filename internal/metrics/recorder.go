package metrics

import "time"

// ResultLabel enumerates task result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// RunOutcomeLabel enumerates the outcome of a full graph run (build or watch iteration).
type RunOutcomeLabel string

const (
	RunSuccess RunOutcomeLabel = "success"
	RunFailed  RunOutcomeLabel = "failed"
)

// FileOutcomeLabel enumerates what happened to one record in a stream pipeline.
type FileOutcomeLabel string

const (
	FileOK      FileOutcomeLabel = "ok"
	FileDropped FileOutcomeLabel = "dropped"
	FileFailed  FileOutcomeLabel = "failed"
)

// Recorder defines observability hooks for task graph and pipeline metrics.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcomeLabel)
	IncFileOutcome(task string, outcome FileOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)             {}
func (NoopRecorder) IncFileOutcome(string, FileOutcomeLabel)   {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
