package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnceSuccess(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.JobRunsTotal.WithLabelValues(StatusSuccess))
	var deadline time.Time
	job := func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}
	cfg := DefaultConfig()
	cfg.PassTimeout = 2 * time.Minute

	err := NewScheduler(cfg, job, testMetrics, nil, discardLogger()).RunOnce(context.Background())

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), deadline, 5*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.JobRunsTotal.WithLabelValues(StatusSuccess)))
	assert.Greater(t, testutil.ToFloat64(testMetrics.JobLastSuccess), float64(0))
}

func TestScheduler_RunOnceFailure(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.JobRunsTotal.WithLabelValues(StatusFailure))
	boom := errors.New("fetch failed")

	err := NewScheduler(DefaultConfig(), func(context.Context) error { return boom }, testMetrics, nil, discardLogger()).
		RunOnce(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.JobRunsTotal.WithLabelValues(StatusFailure)))
}

func TestScheduler_RunOnceWithoutMetrics(t *testing.T) {
	err := NewScheduler(DefaultConfig(), func(context.Context) error { return nil }, nil, nil, nil).
		RunOnce(context.Background())

	assert.NoError(t, err)
}

func TestScheduler_RunFiresAndStops(t *testing.T) {
	var runs atomic.Int32
	cfg := DefaultConfig()
	cfg.CronSchedule = "@every 1s"
	health := NewHealthServer(":0", discardLogger())
	s := NewScheduler(cfg, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil, health, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	assert.True(t, health.isReady.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.False(t, health.isReady.Load())
}

func TestScheduler_RunRejectsBadSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = "not a schedule"

	err := NewScheduler(cfg, func(context.Context) error { return nil }, nil, nil, discardLogger()).
		Run(context.Background())

	assert.ErrorContains(t, err, "add cron job")
}

func TestCronLogger_CountsSkips(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.JobRunsTotal.WithLabelValues(StatusSkipped))
	l := &cronLogger{logger: discardLogger(), metrics: testMetrics}

	l.Info("skip")
	l.Info("wake", "now", time.Now())
	l.Error(errors.New("panic"), "panic", "stack", "...")

	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.JobRunsTotal.WithLabelValues(StatusSkipped)))
}
