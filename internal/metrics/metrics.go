// Package metrics exposes engine telemetry as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flowline-dev/flowline/pkg/workflow"
)

// Compile-time interface assertion.
var _ workflow.MetricsRecorder = (*Recorder)(nil)

// Recorder implements workflow.MetricsRecorder on top of a Prometheus
// registry. Pass it to the engine with workflow.WithMetrics.
type Recorder struct {
	executionsStarted  prometheus.Counter
	executionsFinished *prometheus.CounterVec
	executionDuration  prometheus.Histogram
	executionsActive   prometheus.Gauge
	stepsExecuted      *prometheus.CounterVec
}

// NewRecorder registers the engine's collectors with reg. Use
// prometheus.DefaultRegisterer in production; tests pass a fresh registry so
// collectors do not collide across cases.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		executionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowline_executions_started_total",
			Help: "Total workflow executions started",
		}),
		executionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowline_executions_finished_total",
				Help: "Total workflow executions finished by terminal status",
			},
			[]string{"status"},
		),
		executionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowline_execution_duration_seconds",
			Help:    "Wall-clock duration of finished workflow executions",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		executionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flowline_executions_active",
			Help: "Number of currently running workflow executions",
		}),
		stepsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowline_steps_executed_total",
				Help: "Total steps executed by step type and result status",
			},
			[]string{"step_type", "status"},
		),
	}
}

// ExecutionStarted records the start of an execution.
func (r *Recorder) ExecutionStarted() {
	r.executionsStarted.Inc()
	r.executionsActive.Inc()
}

// ExecutionFinished records a terminal execution and its duration.
func (r *Recorder) ExecutionFinished(status workflow.Status, d time.Duration) {
	r.executionsFinished.WithLabelValues(string(status)).Inc()
	r.executionDuration.Observe(d.Seconds())
	r.executionsActive.Dec()
}

// StepExecuted records one dispatched step result.
func (r *Recorder) StepExecuted(stepType string, status workflow.ResultStatus) {
	r.stepsExecuted.WithLabelValues(stepType, string(status)).Inc()
}
