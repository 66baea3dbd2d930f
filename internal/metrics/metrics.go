// Package metrics provides Prometheus instrumentation for the jobtrack
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsCreated counts total jobs created.
	JobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jobtrack",
		Name:      "jobs_created_total",
		Help:      "Total number of jobs created.",
	})

	// TransitionsTotal counts successful status transitions by edge.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobtrack",
		Name:      "transitions_total",
		Help:      "Total number of successful status transitions.",
	}, []string{"from", "to"})

	// TransitionsDenied counts denied transitions by cause.
	TransitionsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobtrack",
		Name:      "transitions_denied_total",
		Help:      "Total number of denied status transitions.",
	}, []string{"code"})

	// TransitionConflicts counts lost-update conflicts on job writes.
	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "jobtrack",
		Name:      "transition_conflicts_total",
		Help:      "Total number of concurrent-write conflicts on transitions.",
	})

	// OverdueJobs tracks jobs flagged by the sweeper, per status.
	OverdueJobs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "jobtrack",
		Name:      "overdue_jobs",
		Help:      "Jobs sitting in an active status past the overdue threshold.",
	}, []string{"status"})

	// ServerInfo exposes static server metadata as labels.
	ServerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "jobtrack",
		Name:      "server_info",
		Help:      "Static server metadata.",
	}, []string{"version", "workflow"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobtrack",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jobtrack",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})
)

// Init sets static server metadata on the info metric.
func Init(version, workflow string) {
	ServerInfo.WithLabelValues(version, workflow).Set(1)
}
