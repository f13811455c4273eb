// Package metrics exposes Prometheus counters and gauges for the master
// and worker processes, adapted from cuemby-warren's pkg/metrics
// package.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Master metrics.
	JobsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "judgecluster_jobs_submitted_total",
			Help: "Total number of jobs submitted",
		},
	)

	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgecluster_jobs_completed_total",
			Help: "Total number of jobs completed, by terminal outcome",
		},
		[]string{"outcome"},
	)

	JobsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "judgecluster_jobs_in_flight",
			Help: "Number of jobs currently tracked, by phase",
		},
		[]string{"phase"},
	)

	WorkersConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judgecluster_workers_connected",
			Help: "Number of workers currently registered with the master",
		},
	)

	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judgecluster_scheduling_latency_seconds",
			Help:    "Time taken to select a worker for a compile or execute task",
			Buckets: prometheus.DefBuckets,
		},
	)

	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgecluster_api_requests_total",
			Help: "Total number of master HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judgecluster_api_request_duration_seconds",
			Help:    "Master HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Worker metrics.
	TasksExecutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgecluster_worker_tasks_executed_total",
			Help: "Total number of compile/execute tasks processed by this worker",
		},
		[]string{"kind", "outcome"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judgecluster_worker_task_duration_seconds",
			Help:    "Task duration in seconds, by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	SandboxContainersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "judgecluster_worker_sandbox_containers_active",
			Help: "Number of sandbox containers currently running on this worker",
		},
	)
)

func init() {
	prometheus.MustRegister(
		JobsSubmittedTotal,
		JobsCompletedTotal,
		JobsInFlight,
		WorkersConnected,
		SchedulingLatency,
		APIRequestsTotal,
		APIRequestDuration,
		TasksExecutedTotal,
		TaskDuration,
		SandboxContainersActive,
	)
}

// Handler returns the Prometheus scrape handler, mounted at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer records elapsed wall-clock time against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
