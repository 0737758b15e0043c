package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tommy88/xparser/internal/infra/notifier"
	"github.com/Tommy88/xparser/internal/observability/logging"
)

// Defaults for PipelineConfig.
const (
	DefaultMaxAttempts = 5
	DefaultBackoffUnit = time.Second
)

// PipelineConfig controls the retry budget of a Pipeline.
type PipelineConfig struct {
	// MaxAttempts is the number of transient failures tolerated per message
	// before it is abandoned. Rate-limited attempts are not counted.
	MaxAttempts int

	// BackoffUnit is multiplied by 2^attempt between transient failures.
	BackoffUnit time.Duration

	// Logger receives per-message delivery logs. Nil means slog.Default().
	Logger *slog.Logger

	// Sleep waits for d or until ctx is done. Nil means a timer based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is the final state of one message in a delivery pass.
type Outcome string

const (
	OutcomeDelivered    Outcome = "delivered"
	OutcomeAbandoned    Outcome = "abandoned"
	OutcomeNotAttempted Outcome = "not_attempted"
)

// ItemResult describes what happened to one message.
type ItemResult struct {
	Key            string
	Outcome        Outcome
	Attempts       int // Send calls made, including rate-limited ones
	RateLimitWaits int
	Err            error // last error for abandoned items
}

// DeliveryReport summarises a SendAll call.
type DeliveryReport struct {
	Items        []ItemResult
	Delivered    int
	Abandoned    int
	NotAttempted int
}

// ChannelHealthStatus is the health view of the pipeline's channel.
type ChannelHealthStatus struct {
	Name                string     `json:"name"`
	Enabled             bool       `json:"enabled"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
	LastDeliveryAt      *time.Time `json:"last_delivery_at,omitempty"`
}

// Pipeline delivers messages one at a time through a Channel.
//
// Per message, a rate-limit error waits the requested duration and retries
// without spending budget. Any other error spends one attempt and waits
// 2^attempt*BackoffUnit. After MaxAttempts transient failures the message is
// abandoned and the next one is tried.
type Pipeline struct {
	channel Channel
	cfg     PipelineConfig
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	mu                  sync.Mutex
	consecutiveFailures int
	lastError           string
	lastDeliveryAt      *time.Time
}

// NewPipeline creates a Pipeline for channel. Zero config fields get defaults.
func NewPipeline(channel Channel, cfg PipelineConfig) *Pipeline {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = DefaultBackoffUnit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	if channel.IsEnabled() {
		SetChannelsEnabled(1)
	} else {
		SetChannelsEnabled(0)
	}

	return &Pipeline{
		channel: channel,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleep,
	}
}

// SendAll delivers msgs in order and reports the outcome of each.
//
// A disabled channel attempts nothing. When ctx is cancelled the in-flight
// message is abandoned and every remaining message is reported as not attempted.
func (p *Pipeline) SendAll(ctx context.Context, msgs []Message) DeliveryReport {
	report := DeliveryReport{Items: make([]ItemResult, 0, len(msgs))}
	name := p.channel.Name()

	if !p.channel.IsEnabled() {
		for _, msg := range msgs {
			p.logger.Info("delivery disabled, message skipped",
				slog.String("channel", name),
				slog.String("key", msg.Key))
			RecordDropped(name, "disabled")
			report.add(ItemResult{Key: msg.Key, Outcome: OutcomeNotAttempted, Err: ErrChannelDisabled})
		}
		return report
	}

	for i, msg := range msgs {
		if ctx.Err() != nil {
			for _, rest := range msgs[i:] {
				RecordDropped(name, "cancelled")
				report.add(ItemResult{Key: rest.Key, Outcome: OutcomeNotAttempted, Err: ctx.Err()})
			}
			break
		}
		report.add(p.deliver(ctx, msg))
	}
	return report
}

func (p *Pipeline) deliver(ctx context.Context, msg Message) ItemResult {
	name := p.channel.Name()
	res := ItemResult{Key: msg.Key}
	failures := 0

	RecordDispatch(name)
	for {
		res.Attempts++
		start := time.Now()
		err := p.channel.Send(ctx, msg)
		duration := time.Since(start)

		if err == nil {
			RecordSuccess(name, duration)
			p.markDelivered()
			p.logger.Info("message delivered",
				slog.String("channel", name),
				slog.String("key", msg.Key),
				slog.Int("attempts", res.Attempts),
				slog.Duration("duration", duration))
			res.Outcome = OutcomeDelivered
			return res
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			RecordFailure(name, duration)
			return p.abandon(res, msg, ctxErr)
		}

		var wait time.Duration
		if rl, ok := notifier.AsRateLimit(err); ok {
			res.RateLimitWaits++
			wait = rl.RetryAfter
			RecordRateLimitHit(name)
			RecordRateLimitWait(name, wait)
			p.logger.Warn("rate limited, waiting",
				slog.String("channel", name),
				slog.String("key", msg.Key),
				slog.Duration("retry_after", wait))
		} else {
			failures++
			RecordFailure(name, duration)
			p.markFailed(err)
			if failures >= p.cfg.MaxAttempts {
				return p.abandon(res, msg, err)
			}
			wait = p.backoff(failures)
			p.logger.Warn("delivery failed, retrying",
				slog.String("channel", name),
				slog.String("key", msg.Key),
				slog.Int("attempt", failures),
				slog.Int("max_attempts", p.cfg.MaxAttempts),
				slog.Duration("backoff", wait),
				logging.Error(err))
		}

		if err := p.wait(ctx, wait); err != nil {
			return p.abandon(res, msg, err)
		}
	}
}

func (p *Pipeline) abandon(res ItemResult, msg Message, err error) ItemResult {
	reason := "exhausted"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = "cancelled"
	}
	RecordDropped(p.channel.Name(), reason)
	p.logger.Error("message abandoned",
		slog.String("channel", p.channel.Name()),
		slog.String("key", msg.Key),
		slog.Int("attempts", res.Attempts),
		slog.String("reason", reason),
		logging.Error(err))
	res.Outcome = OutcomeAbandoned
	res.Err = err
	return res
}

// backoff returns 2^attempt * BackoffUnit.
func (p *Pipeline) backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * p.cfg.BackoffUnit
}

func (p *Pipeline) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

func (p *Pipeline) markDelivered() {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consecutiveFailures = 0
	p.lastError = ""
	p.lastDeliveryAt = &now
}

func (p *Pipeline) markFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consecutiveFailures++
	p.lastError = logging.SanitizeError(err)
}

// Health returns the current health of the pipeline's channel.
func (p *Pipeline) Health() ChannelHealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := ChannelHealthStatus{
		Name:                p.channel.Name(),
		Enabled:             p.channel.IsEnabled(),
		ConsecutiveFailures: p.consecutiveFailures,
		LastError:           p.lastError,
	}
	if p.lastDeliveryAt != nil {
		t := *p.lastDeliveryAt
		status.LastDeliveryAt = &t
	}
	return status
}

func (r *DeliveryReport) add(item ItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeDelivered:
		r.Delivered++
	case OutcomeAbandoned:
		r.Abandoned++
	case OutcomeNotAttempted:
		r.NotAttempted++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsAbandoned reports whether item was given up after failures rather than
// cut short by the caller's context.
func IsAbandoned(item ItemResult) bool {
	return item.Outcome == OutcomeAbandoned && !errors.Is(item.Err, context.Canceled) &&
		!errors.Is(item.Err, context.DeadlineExceeded)
}
