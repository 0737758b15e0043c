// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pass metrics track reconciliation passes
var (
	// PassesTotal counts passes by result
	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_passes_total",
			Help: "Total number of reconciliation passes",
		},
		[]string{"result"}, // result: success, fetch_failed, empty, error
	)

	// PassDuration measures a full pass from fetch to delivery
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_pass_duration_seconds",
			Help:    "Time taken by one reconciliation pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// LastSuccessfulPass is the unix time of the last successful pass
	LastSuccessfulPass = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_last_successful_pass_timestamp_seconds",
			Help: "Unix time of the last successful pass",
		},
	)
)

// Catalog metrics track what the crawler observed and how the store changed
var (
	// PagesFetchedTotal counts listing pages fetched
	PagesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_pages_fetched_total",
			Help: "Total number of catalog listing pages fetched",
		},
	)

	// EntriesObserved is the number of valid entries seen in the last crawl
	EntriesObserved = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries_observed",
			Help: "Number of valid entries observed by the last crawl",
		},
	)

	// CrawlsTruncatedTotal counts crawls that stopped before the last page
	CrawlsTruncatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_crawls_truncated_total",
			Help: "Total number of crawls that stopped before the last listing page",
		},
		[]string{"reason"},
	)

	// EntriesDroppedTotal counts extracted entries that failed validation
	EntriesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_entries_dropped_total",
			Help: "Total number of extracted entries dropped by validation",
		},
	)

	// ChangesTotal counts diff entries by kind
	ChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_changes_total",
			Help: "Total number of diff entries by kind",
		},
		[]string{"kind"}, // kind: appeared, disappeared, changed
	)

	// EvictedTotal counts entries removed by retention
	EvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_evicted_total",
			Help: "Total number of stored entries evicted by retention",
		},
	)

	// StoreSize is the number of entries in the store after the last pass
	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_store_entries",
			Help: "Number of entries in the snapshot store",
		},
	)
)

// Database metrics track snapshot store performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
