package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	buildDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	filesWritten  *prom.CounterVec
}

// NewPrometheusRecorder constructs the build metrics and registers them with
// reg. A nil registry gets a private one.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of individual pipeline tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline", "task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Task result counts by outcome",
		}, []string{"pipeline", "task", "result"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}, []string{"pipeline"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"pipeline", "outcome"}),
		filesWritten: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Files written to the output directory",
		}, []string{"pipeline"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.buildDuration, pr.buildOutcome, pr.filesWritten)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(pipeline, task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(pipeline, task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(pipeline, task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(pipeline, task, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(pipeline string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(pipeline string, outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(pipeline, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddFilesWritten(pipeline string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesWritten.WithLabelValues(pipeline).Add(float64(n))
}
