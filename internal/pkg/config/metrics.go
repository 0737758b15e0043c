package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration state for one component.
//
// Metrics generated (prefixed by component name):
//   - {component}_config_load_timestamp
//   - {component}_config_validation_errors_total{field}
//   - {component}_config_fallbacks_total{field}
//   - {component}_config_fallback_active
//
// Metrics are registered with the default registry, so each component name
// may only be used once per process.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewConfigMetrics creates and registers metrics for component.
func NewConfigMetrics(component string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", component),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", component),
		}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", component),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", component),
		}, []string{"field"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", component),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", component),
		}, []string{"field"}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", component),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", component),
		}),
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a validation failure for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a default applied to field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the fallback gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}

// Collector accumulates loader results for one configuration struct and
// reports fallbacks through a logger and optional metrics.
type Collector struct {
	logger   *slog.Logger
	metrics  *ConfigMetrics
	warnings []string
	fallback bool
}

// NewCollector creates a Collector. metrics may be nil.
func NewCollector(logger *slog.Logger, metrics *ConfigMetrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger, metrics: metrics}
}

// Field records r under field and returns its value.
func Field[T any](c *Collector, field string, r Result[T]) T {
	if r.FallbackApplied {
		c.fallback = true
		if c.metrics != nil {
			c.metrics.RecordValidationError(field)
			c.metrics.RecordFallback(field)
		}
		for _, w := range r.Warnings {
			c.logger.Warn("configuration fallback applied", slog.String("field", field), slog.String("detail", w))
		}
	}
	c.warnings = append(c.warnings, r.Warnings...)
	return r.Value
}

// Finish records the load timestamp and fallback state.
func (c *Collector) Finish() {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordLoadTimestamp()
	c.metrics.SetFallbackActive(c.fallback)
}

// Warnings returns every warning recorded so far.
func (c *Collector) Warnings() []string { return c.warnings }

// FallbackApplied reports whether any field fell back to its default.
func (c *Collector) FallbackApplied() bool { return c.fallback }
