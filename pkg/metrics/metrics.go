package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "feedserver"

	metricLabelHandler = "handler"
	metricLabelStatus  = "status"
	metricLabelFeed    = "feed"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// FeedFetchCounter counts fetch attempts per feed and outcome
	FeedFetchCounter = newCounterVec(
		"feed_fetch_count",
		"Number of fetch attempts for each feed",
		metricLabelFeed, metricLabelStatus,
	)
	// FeedFetchDuration observes the duration of each feed fetch
	FeedFetchDuration = newSummaryVec(
		"feed_fetch_duration_seconds",
		"Seconds to fetch and parse a single feed",
		metricLabelFeed,
	)
	// CollectsCompletedCounter counts the number of successful collections
	CollectsCompletedCounter = newCounterVec(
		"collects_completed_count",
		"Number of collections that were successfully completed",
	)
	// CollectsFailedCounter counts the number of collections that had an error
	CollectsFailedCounter = newCounterVec(
		"collects_failed_count",
		"Number of collections that failed due to an error",
	)
	// CollectDuration observes the duration of each collection run
	CollectDuration = newSummaryVec(
		"collect_duration_seconds",
		"Duration in seconds for each collection run",
	)
	// ItemsGauge tracks the number of items in the current snapshot
	ItemsGauge = newGaugeVec(
		"items_total",
		"Number of items in the currently served snapshot",
	)
	// ServiceRequestCounter counts the number of requests for each handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observes the duration of requests for each handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to execute a handler and write its response",
		metricLabelHandler, metricLabelStatus,
	)
	// HistoryPersistFailedCounter counts the number of failed attempts to persist a snapshot
	HistoryPersistFailedCounter = newCounterVec(
		"history_persist_failed_count",
		"Number of failures to store a snapshot in the history",
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
