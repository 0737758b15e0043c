package metrics

import (
	"time"
)

// Pass results used as the result label of PassesTotal.
const (
	ResultSuccess     = "success"
	ResultFetchFailed = "fetch_failed"
	ResultEmpty       = "empty"
	ResultError       = "error"
)

// RecordPass records the result and duration of one pass. A success also
// moves the last-successful-pass timestamp.
func RecordPass(result string, duration time.Duration) {
	PassesTotal.WithLabelValues(result).Inc()
	PassDuration.Observe(duration.Seconds())
	if result == ResultSuccess {
		LastSuccessfulPass.SetToCurrentTime()
	}
}

// RecordCrawl records the volume of one crawl.
func RecordCrawl(pages, observed, dropped int) {
	PagesFetchedTotal.Add(float64(pages))
	EntriesObserved.Set(float64(observed))
	EntriesDroppedTotal.Add(float64(dropped))
}

// RecordCrawlTruncated counts a crawl that stopped early for reason.
func RecordCrawlTruncated(reason string) {
	CrawlsTruncatedTotal.WithLabelValues(reason).Inc()
}

// RecordReconcile records diff counts, evictions and the resulting store size.
func RecordReconcile(appeared, disappeared, changed, evicted, storeSize int) {
	ChangesTotal.WithLabelValues("appeared").Add(float64(appeared))
	ChangesTotal.WithLabelValues("disappeared").Add(float64(disappeared))
	ChangesTotal.WithLabelValues("changed").Add(float64(changed))
	EvictedTotal.Add(float64(evicted))
	StoreSize.Set(float64(storeSize))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "load_snapshot", "save_snapshot").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
