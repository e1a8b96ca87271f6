package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "sitemaps"

	metricLabelFormat  = "format"
	metricLabelStatus  = "status"
	metricLabelSitemap = "sitemap"
	metricLabelRoute   = "route"
	metricLabelResult  = "result"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// GenerationCounter count of sitemap generations per format
	GenerationCounter = newCounterVec(
		"generation_count",
		"Count of sitemap generations for each format",
		metricLabelFormat, metricLabelStatus,
	)
	// GenerationDuration observe the duration of each sitemap generation
	GenerationDuration = newSummaryVec(
		"generation_duration_seconds",
		"Seconds to walk the content tree and render a sitemap",
		metricLabelFormat, metricLabelStatus,
	)
	// EntriesGauge number of entries of the last generated sitemap
	EntriesGauge = newGaugeVec(
		"entries_total",
		"Number of entries in the last generated sitemap",
		metricLabelSitemap,
	)
	// ServiceRequestCounter count the number of sitemap requests
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each route",
		metricLabelRoute, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of sitemap requests
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to look up, generate and write a sitemap",
		metricLabelRoute, metricLabelStatus,
	)
	// CacheCounter real time sitemap cache lookups
	CacheCounter = newCounterVec(
		"cache_lookup_count",
		"Number of real time sitemap cache lookups",
		metricLabelResult,
	)
	// JobRunCounter count of batch job executions
	JobRunCounter = newCounterVec(
		"job_run_count",
		"Number of generation job executions",
		metricLabelStatus,
	)
	// InvalidReferenceRequests counts lookups of unknown content references
	InvalidReferenceRequests = newCounterVec(
		"invalid_reference_request_count",
		"Counts the number of lookups for unknown content references",
	)
	// UpdatesCompletedCounter count the number of completed content updates
	UpdatesCompletedCounter = newCounterVec(
		"updates_completed_count",
		"Number of content updates that were successfully completed",
	)
	// UpdatesFailedCounter count the number of content updates that had an error
	UpdatesFailedCounter = newCounterVec(
		"updates_failed_count",
		"Number of content updates that failed due to an error",
	)
	// UpdateDuration observe the duration of each repo.update() call
	UpdateDuration = newSummaryVec(
		"update_duration_seconds",
		"Duration in seconds for each successful repo.update() call",
	)
	// HistoryPersistFailedCounter count the number of failed attempts to persist the content history
	HistoryPersistFailedCounter = newCounterVec(
		"history_persist_failed_count",
		"Number of failures to store the content history",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
