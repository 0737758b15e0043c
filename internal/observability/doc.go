// Package observability groups the worker's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog setup and run id propagation
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
