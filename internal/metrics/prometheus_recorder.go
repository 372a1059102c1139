package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration *prom.HistogramVec
	taskResults  *prom.CounterVec
	runDuration  prom.Histogram
	runOutcomes  *prom.CounterVec
	fileOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "twbuilder",
			Name:      "task_duration_seconds",
			Help:      "Duration of individual tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "twbuilder",
			Name:      "task_results_total",
			Help:      "Task result counts by outcome",
		}, []string{"task", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "twbuilder",
			Name:      "run_duration_seconds",
			Help:      "Duration of full graph runs",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "twbuilder",
			Name:      "run_outcomes_total",
			Help:      "Graph run outcomes",
		}, []string{"outcome"}),
		fileOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "twbuilder",
			Name:      "file_outcomes_total",
			Help:      "Per-file pipeline outcomes",
		}, []string{"task", "outcome"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.runDuration, pr.runOutcomes, pr.fileOutcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncFileOutcome(task string, outcome FileOutcomeLabel) {
	if p == nil {
		return
	}
	p.fileOutcomes.WithLabelValues(task, string(outcome)).Inc()
}
