// Package catalog runs reconciliation passes: observe the catalog, reconcile
// it with the stored snapshot, persist the result and announce the changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/observability/logging"
	"github.com/Tommy88/xparser/internal/observability/metrics"
	"github.com/Tommy88/xparser/internal/observability/tracing"
	"github.com/Tommy88/xparser/internal/repository"
	"github.com/Tommy88/xparser/internal/usecase/notify"
	"github.com/Tommy88/xparser/internal/usecase/reconcile"
)

// Source observes the current state of the catalog.
type Source interface {
	Observe(ctx context.Context) (entity.Snapshot, error)
}

// Deliverer sends formatted messages and reports per-message outcomes.
type Deliverer interface {
	SendAll(ctx context.Context, msgs []notify.Message) notify.DeliveryReport
}

// Config holds pass settings.
type Config struct {
	// Retention is how long unobserved entries stay in the store.
	// Zero means reconcile.DefaultRetention.
	Retention time.Duration
	// Suppress lists attribute values that keep an entry from being announced.
	Suppress notify.SuppressSet
	// Location is the zone timestamps are written and read in. Nil means Local.
	Location *time.Location
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// PassStats summarises one pass.
type PassStats struct {
	Observed     int
	Appeared     int
	Disappeared  int
	Changed      int
	Evicted      int
	StoreSize    int
	Messages     int
	Delivered    int
	Abandoned    int // gave up after exhausting attempts
	Cancelled    int // cut short by the pass context while in flight
	NotAttempted int
	Duration     time.Duration
}

// Service runs reconciliation passes.
type Service struct {
	source    Source
	store     repository.SnapshotRepository
	diffs     repository.DiffRepository
	deliverer Deliverer
	cfg       Config
}

// NewService wires a pass service. diffs may be nil to skip the audit file.
func NewService(source Source, store repository.SnapshotRepository, diffs repository.DiffRepository,
	deliverer Deliverer, cfg Config) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = reconcile.DefaultRetention
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		source:    source,
		store:     store,
		diffs:     diffs,
		deliverer: deliverer,
		cfg:       cfg,
	}
}

// RunPass performs one pass:
//
//	observe -> load -> reconcile -> save diff -> save store -> format -> deliver
//
// The store is saved before any delivery attempt. Delivery failures are
// reported in the stats and do not fail the pass.
func (s *Service) RunPass(ctx context.Context) (PassStats, error) {
	start := time.Now()
	ctx, logger := logging.WithRunID(ctx, slog.Default())
	ctx, span := tracing.StartSpan(ctx, "catalog.pass",
		attribute.String("run_id", logging.RunID(ctx)))
	defer span.End()

	logger.Info("pass started")
	stats, err := s.runPass(ctx, logger)
	stats.Duration = time.Since(start)

	result := passResult(err)
	metrics.RecordPass(result, stats.Duration)
	if err != nil {
		tracing.Fail(span, err)
		logger.Error("pass aborted",
			slog.String("result", result),
			slog.Duration("duration", stats.Duration),
			logging.Error(err))
		return stats, err
	}

	span.SetAttributes(
		attribute.Int("catalog.appeared", stats.Appeared),
		attribute.Int("catalog.changed", stats.Changed),
		attribute.Int("catalog.delivered", stats.Delivered),
	)
	logger.Info("pass finished",
		slog.Int("observed", stats.Observed),
		slog.Int("appeared", stats.Appeared),
		slog.Int("changed", stats.Changed),
		slog.Int("disappeared", stats.Disappeared),
		slog.Int("evicted", stats.Evicted),
		slog.Int("store_size", stats.StoreSize),
		slog.Int("messages", stats.Messages),
		slog.Int("delivered", stats.Delivered),
		slog.Int("abandoned", stats.Abandoned),
		slog.Int("cancelled", stats.Cancelled),
		slog.Int("not_attempted", stats.NotAttempted),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) runPass(ctx context.Context, logger *slog.Logger) (PassStats, error) {
	var stats PassStats

	observed, err := s.observe(ctx)
	if err != nil {
		return stats, err
	}
	stats.Observed = len(observed)

	stored, err := s.load(ctx)
	if err != nil {
		return stats, err
	}

	now := s.cfg.Now().In(s.cfg.Location)
	_, span := tracing.StartSpan(ctx, "catalog.reconcile",
		attribute.Int("catalog.stored", len(stored)),
		attribute.Int("catalog.observed", len(observed)))
	res := reconcile.Reconcile(stored, observed, now, s.cfg.Retention)
	span.End()

	stats.Appeared, stats.Disappeared, stats.Changed = res.Diff.Counts()
	stats.Evicted = len(res.Evicted)
	stats.StoreSize = len(res.Store)
	metrics.RecordReconcile(stats.Appeared, stats.Disappeared, stats.Changed, stats.Evicted, stats.StoreSize)
	if stats.Evicted > 0 {
		logger.Info("entries evicted by retention",
			slog.Int("count", stats.Evicted),
			slog.Duration("retention", s.cfg.Retention))
	}

	if err := s.persist(ctx, logger, res); err != nil {
		return stats, err
	}

	msgs := notify.Format(res.Diff, s.cfg.Suppress)
	stats.Messages = len(msgs)
	if len(msgs) == 0 {
		return stats, nil
	}

	dctx, span := tracing.StartSpan(ctx, "catalog.deliver", attribute.Int("catalog.messages", len(msgs)))
	report := s.deliverer.SendAll(dctx, msgs)
	span.SetAttributes(
		attribute.Int("catalog.delivered", report.Delivered),
		attribute.Int("catalog.abandoned", report.Abandoned),
	)
	span.End()

	stats.Delivered = report.Delivered
	stats.NotAttempted = report.NotAttempted
	for _, item := range report.Items {
		if notify.IsAbandoned(item) {
			stats.Abandoned++
		}
	}
	stats.Cancelled = report.Abandoned - stats.Abandoned
	return stats, nil
}

func (s *Service) observe(ctx context.Context) (entity.Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.fetch")
	defer span.End()

	observed, err := s.source.Observe(ctx)
	switch {
	case errors.Is(err, entity.ErrNoEntries):
		tracing.Fail(span, err)
		return nil, fmt.Errorf("%w: %v", ErrEmptyObservation, err)
	case err != nil:
		tracing.Fail(span, err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	case len(observed) == 0:
		tracing.Fail(span, ErrEmptyObservation)
		return nil, ErrEmptyObservation
	}
	span.SetAttributes(attribute.Int("catalog.observed", len(observed)))
	return observed, nil
}

func (s *Service) load(ctx context.Context) (entity.Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.load")
	defer span.End()

	stored, err := s.store.Load(ctx)
	if err != nil {
		tracing.Fail(span, err)
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if stored == nil {
		stored = entity.Snapshot{}
	}
	return stored, nil
}

// persist writes the audit diff, then the store. A failed audit write is
// logged and the pass continues; a failed store write aborts before delivery.
func (s *Service) persist(ctx context.Context, logger *slog.Logger, res reconcile.Result) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.persist")
	defer span.End()

	if s.diffs != nil {
		if err := s.diffs.SaveDiff(ctx, res.Diff); err != nil {
			logger.Warn("failed to save diff", logging.Error(err))
		}
	}
	if err := s.store.Save(ctx, res.Store); err != nil {
		tracing.Fail(span, err)
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func passResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrFetchFailed):
		return metrics.ResultFetchFailed
	case errors.Is(err, ErrEmptyObservation):
		return metrics.ResultEmpty
	default:
		return metrics.ResultError
	}
}
