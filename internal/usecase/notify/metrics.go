package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for catalog message delivery
var (
	// notificationDispatchedTotal counts messages handed to a channel
	notificationDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatched_total",
			Help: "Total number of messages dispatched to a delivery channel",
		},
		[]string{"channel"},
	)

	// notificationSentTotal counts individual send attempts by result
	notificationSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Total number of send attempts by result",
		},
		[]string{"channel", "status"}, // status: success|failure
	)

	notificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_duration_seconds",
			Help:    "Send attempt duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"channel"},
	)

	notificationRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_rate_limit_hits_total",
			Help: "Total number of rate limit responses",
		},
		[]string{"channel"},
	)

	notificationRateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_rate_limit_wait_seconds",
			Help:    "Wait requested by rate limit responses in seconds",
			Buckets: []float64{1, 3, 5, 10, 30, 60, 300},
		},
		[]string{"channel"},
	)

	// notificationDroppedTotal counts messages that were never delivered
	notificationDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dropped_total",
			Help: "Total number of messages not delivered",
		},
		[]string{"channel", "reason"}, // reason: exhausted|cancelled|disabled
	)

	channelsEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_channels_enabled",
			Help: "Number of enabled delivery channels",
		},
	)
)

// RecordDispatch records that a message is about to be delivered.
func RecordDispatch(channel string) {
	notificationDispatchedTotal.WithLabelValues(channel).Inc()
}

// RecordSuccess records a successful send attempt and its duration.
func RecordSuccess(channel string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(channel, "success").Inc()
	notificationDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordFailure records a failed send attempt and its duration.
func RecordFailure(channel string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(channel, "failure").Inc()
	notificationDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordDropped records a message that was not delivered.
//
// Parameters:
//   - channel: The name of the delivery channel
//   - reason: exhausted, cancelled or disabled
func RecordDropped(channel string, reason string) {
	notificationDroppedTotal.WithLabelValues(channel, reason).Inc()
}

// RecordRateLimitHit records a rate limit response.
func RecordRateLimitHit(channel string) {
	notificationRateLimitHits.WithLabelValues(channel).Inc()
}

// RecordRateLimitWait records the wait a rate limit response asked for.
func RecordRateLimitWait(channel string, waitDuration time.Duration) {
	notificationRateLimitWaitSeconds.WithLabelValues(channel).Observe(waitDuration.Seconds())
}

// SetChannelsEnabled sets the number of enabled delivery channels.
func SetChannelsEnabled(count float64) {
	channelsEnabled.Set(count)
}
