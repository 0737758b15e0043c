// Package tracing provides OpenTelemetry tracing helpers.
//
// Reconciliation passes open one span per phase (fetch, load, reconcile,
// persist, deliver) under a pass span, and the worker's HTTP endpoints are
// wrapped with Middleware. Without an installed TracerProvider the global
// no-op provider is used and spans cost nothing.
package tracing
