package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Tommy88/xparser/internal/pkg/config"
)

// Job run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// WorkerMetrics holds scheduler metrics plus the worker's configuration metrics.
//
//   - worker_job_runs_total{status}
//   - worker_job_duration_seconds
//   - worker_job_last_success_timestamp
//   - worker_config_* (see config.ConfigMetrics)
type WorkerMetrics struct {
	*config.ConfigMetrics

	JobRunsTotal       *prometheus.CounterVec
	JobDurationSeconds prometheus.Histogram
	JobLastSuccess     prometheus.Gauge
}

// NewWorkerMetrics creates and registers the worker metrics. Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduled catalog passes by status",
		}, []string{"status"}),

		JobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Wall time of scheduled catalog passes",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		JobLastSuccess: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled pass",
		}),
	}
}

// RecordJob records one finished run.
func (m *WorkerMetrics) RecordJob(status string, d time.Duration) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
	m.JobDurationSeconds.Observe(d.Seconds())
	if status == StatusSuccess {
		m.JobLastSuccess.SetToCurrentTime()
	}
}

// RecordSkipped counts a tick dropped because the previous pass was still running.
func (m *WorkerMetrics) RecordSkipped() {
	m.JobRunsTotal.WithLabelValues(StatusSkipped).Inc()
}
