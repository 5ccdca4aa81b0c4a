package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	transitionsTotal      *prometheus.CounterVec
	emailsSentTotal       *prometheus.CounterVec
	emailTaskFailures     *prometheus.CounterVec
	directorySyncedUsers  *prometheus.GaugeVec
	dashboardCacheResults *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and CLI.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exdb_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exdb_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exdb_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exdb_experience_transitions_total",
			Help: "Experience status transitions applied.",
		}, []string{"from", "to"})

		emailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exdb_emails_sent_total",
			Help: "Emails handed to the mail transport per task.",
		}, []string{"task"})

		emailTaskFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exdb_email_task_failures_total",
			Help: "Email task runs aborted by a transport or database error.",
		}, []string{"task"})

		directorySyncedUsers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "exdb_directory_sync_users",
			Help: "Users touched by the last directory sync.",
		}, []string{"outcome"})

		dashboardCacheResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exdb_dashboard_cache_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			transitionsTotal,
			emailsSentTotal,
			emailTaskFailures,
			directorySyncedUsers,
			dashboardCacheResults,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ExperienceTransitions exposes the status transition counter.
func ExperienceTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// EmailsSent exposes the per-task email counter.
func EmailsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return emailsSentTotal
}

// EmailTaskFailures exposes the per-task failure counter.
func EmailTaskFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return emailTaskFailures
}

// DirectorySyncUsers exposes the directory sync gauge.
func DirectorySyncUsers() *prometheus.GaugeVec {
	RegisterMetrics()
	return directorySyncedUsers
}

// DashboardCache exposes the dashboard cache hit and miss counter.
func DashboardCache() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheResults
}
