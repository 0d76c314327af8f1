// Package metrics provides Prometheus metrics for the Aster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks inbound HTTP requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// MergesTotal tracks person merge operations by outcome
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "merge",
			Name:      "operations_total",
			Help:      "Total number of person merge operations by status",
		},
		[]string{"status"},
	)

	// MergeDuration tracks person merge duration in seconds
	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "merge",
			Name:      "duration_seconds",
			Help:      "Duration of person merge operations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// MergeRecordsReassigned tracks records moved to the primary person per merge
	MergeRecordsReassigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "merge",
			Name:      "records_reassigned_total",
			Help:      "Total number of records reassigned to the primary person during merges",
		},
		[]string{"record_type"},
	)

	// GraphAssembliesTotal tracks relationship graph builds
	GraphAssembliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "graph",
			Name:      "assemblies_total",
			Help:      "Total number of relationship graph assemblies by mode",
		},
		[]string{"mode"},
	)

	// GraphNodesReturned tracks graph response sizes
	GraphNodesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "graph",
			Name:      "nodes_returned",
			Help:      "Number of nodes returned per graph assembly",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// GraphCacheHits tracks graph cache lookups by result
	GraphCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "graph",
			Name:      "cache_lookups_total",
			Help:      "Total number of graph cache lookups by result",
		},
		[]string{"result"},
	)

	// TimelineAssembliesTotal tracks timeline builds
	TimelineAssembliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "timeline",
			Name:      "assemblies_total",
			Help:      "Total number of timeline assemblies",
		},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"event_type", "status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordMerge records a merge operation outcome
func RecordMerge(status string, durationSeconds float64) {
	MergesTotal.WithLabelValues(status).Inc()
	MergeDuration.Observe(durationSeconds)
}

// RecordReassigned records rows moved to the primary person during a merge
func RecordReassigned(recordType string, count int64) {
	if count <= 0 {
		return
	}
	MergeRecordsReassigned.WithLabelValues(recordType).Add(float64(count))
}

// RecordGraphAssembly records a graph assembly and its node count
func RecordGraphAssembly(mode string, nodeCount int) {
	GraphAssembliesTotal.WithLabelValues(mode).Inc()
	GraphNodesReturned.Observe(float64(nodeCount))
}

// RecordHTTPRequest records an inbound HTTP request metric
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
