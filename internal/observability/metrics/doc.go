// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the worker's catalog metrics:
//   - Pass results and durations
//   - Crawl volume (pages, cards, observed entries)
//   - Reconciliation results (diff counts by kind, evictions, store size)
//   - Snapshot store query durations
//
// All metrics are registered with the Prometheus default registry and exposed
// via the worker's /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	stats, err := svc.RunPass(ctx)
//	metrics.RecordPass(err == nil, time.Since(start))
package metrics
