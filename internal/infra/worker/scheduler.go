package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Tommy88/xparser/internal/observability/logging"
)

// Job is one unit of scheduled work, typically a catalog pass.
type Job func(ctx context.Context) error

// Scheduler runs a Job either once or on a cron schedule. Each run is bounded
// by WorkerConfig.PassTimeout and recorded in WorkerMetrics.
type Scheduler struct {
	cfg     WorkerConfig
	job     Job
	metrics *WorkerMetrics
	logger  *slog.Logger
	health  *HealthServer
}

// NewScheduler creates a Scheduler. metrics and health may be nil.
func NewScheduler(cfg WorkerConfig, job Job, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cfg: cfg, job: job, metrics: metrics, health: health, logger: logger}
}

// RunOnce executes the job a single time and returns its error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PassTimeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("job started")
	err := s.job(ctx)
	duration := time.Since(start)

	if err != nil {
		s.record(StatusFailure, duration)
		s.logger.Error("job failed", slog.Duration("duration", duration), logging.Error(err))
		return err
	}
	s.record(StatusSuccess, duration)
	s.logger.Info("job completed", slog.Duration("duration", duration))
	return nil
}

// Run schedules the job and blocks until ctx is cancelled. A tick that fires
// while the previous run is still going is skipped. Run waits for an
// in-flight job before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	loc, err := s.cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.cfg.Timezone, err)
	}

	clog := &cronLogger{logger: s.logger, metrics: s.metrics}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(s.cfg.CronSchedule, func() {
		_ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	if s.health != nil {
		s.health.SetReady(true)
	}
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone),
		slog.Duration("pass_timeout", s.cfg.PassTimeout))

	<-ctx.Done()
	if s.health != nil {
		s.health.SetReady(false)
	}
	s.logger.Info("scheduler stopping, waiting for running job")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) record(status string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordJob(status, d)
	}
}

// cronLogger adapts slog to cron.Logger and counts ticks dropped by
// cron.SkipIfStillRunning, which reports them as Info("skip").
type cronLogger struct {
	logger  *slog.Logger
	metrics *WorkerMetrics
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		if l.metrics != nil {
			l.metrics.RecordSkipped()
		}
		l.logger.Warn("previous job still running, tick skipped")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
