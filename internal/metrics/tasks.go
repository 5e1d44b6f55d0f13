package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Task Prometheus metrics.
var (
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "tasks_total",
			Help:      "Total number of maintenance tasks run",
		},
		[]string{"kind", "status"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "task_duration_seconds",
			Help:      "Maintenance task duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	TasksEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "tasks_enqueued_total",
			Help:      "Total number of maintenance tasks deferred",
		},
		[]string{"kind"},
	)
)

var taskMetricsRegistered bool

// RegisterTaskMetrics registers Prometheus task metrics. Must be called once from main.
func RegisterTaskMetrics() {
	if taskMetricsRegistered {
		return
	}
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(TasksEnqueuedTotal)
	taskMetricsRegistered = true
}

// ObserveTask records one task run.
func ObserveTask(kind string, start time.Time, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}
	TasksTotal.WithLabelValues(kind, status).Inc()
	TaskDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
