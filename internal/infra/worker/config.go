package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Tommy88/xparser/internal/pkg/config"
)

// WorkerConfig controls how the catalog pass is scheduled and observed.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression or descriptor (default "0 * * * *")
//   - WORKER_TIMEZONE: IANA timezone for the schedule (default "UTC")
//   - PASS_TIMEOUT: upper bound for one pass, 1m..6h (default 30m)
//   - WORKER_HEALTH_PORT: health probe port (default 9091)
//   - METRICS_PORT: Prometheus and channel health port (default 9090)
//   - WORKER_RUN_ONCE: run a single pass and exit (default true)
type WorkerConfig struct {
	CronSchedule string
	Timezone     string
	PassTimeout  time.Duration
	HealthPort   int
	MetricsPort  int
	RunOnce      bool
}

const (
	minPassTimeout = time.Minute
	maxPassTimeout = 6 * time.Hour
)

// DefaultConfig returns the configuration used when no variables are set.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 * * * *",
		Timezone:     "UTC",
		PassTimeout:  30 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
		RunOnce:      true,
	}
}

// Validate reports the first invalid field.
func (c WorkerConfig) Validate() error {
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		return fmt.Errorf("cron_schedule: %w", err)
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if err := config.DurationBetween(minPassTimeout, maxPassTimeout)(c.PassTimeout); err != nil {
		return fmt.Errorf("pass_timeout: %w", err)
	}
	for name, port := range map[string]int{"health_port": c.HealthPort, "metrics_port": c.MetricsPort} {
		if err := config.IntBetween(1024, 65535)(port); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.HealthPort == c.MetricsPort {
		return fmt.Errorf("health_port and metrics_port must differ, both are %d", c.HealthPort)
	}
	return nil
}

// Location loads the configured timezone.
func (c WorkerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// LoadConfigFromEnv reads WorkerConfig with fail-open semantics: invalid
// values are replaced by defaults, logged and counted in metrics. The only
// error is a configuration that is still invalid after fallbacks, which
// happens when both ports resolve to the same value.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (WorkerConfig, error) {
	def := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	c := config.NewCollector(logger, cm)

	cfg := WorkerConfig{
		CronSchedule: config.Field(c, "cron_schedule",
			config.LoadString("CRON_SCHEDULE", def.CronSchedule, config.ValidateCronSchedule)),
		Timezone: config.Field(c, "timezone",
			config.LoadString("WORKER_TIMEZONE", def.Timezone, config.ValidateTimezone)),
		PassTimeout: config.Field(c, "pass_timeout",
			config.LoadDuration("PASS_TIMEOUT", def.PassTimeout, config.DurationBetween(minPassTimeout, maxPassTimeout))),
		HealthPort: config.Field(c, "health_port",
			config.LoadInt("WORKER_HEALTH_PORT", def.HealthPort, config.IntBetween(1024, 65535))),
		MetricsPort: config.Field(c, "metrics_port",
			config.LoadInt("METRICS_PORT", def.MetricsPort, config.IntBetween(1024, 65535))),
		RunOnce: config.Field(c, "run_once", config.LoadBool("WORKER_RUN_ONCE", def.RunOnce)),
	}
	c.Finish()

	if err := cfg.Validate(); err != nil {
		return WorkerConfig{}, fmt.Errorf("worker config: %w", err)
	}
	return cfg, nil
}
