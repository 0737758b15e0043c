package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing requests with a token bucket so the worker stays
// under the chat service's published limits instead of relying on 429s.
type RateLimiter struct {
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter creates a new RateLimiter with the specified rate and burst capacity.
//
// Example:
//
//	limiter := NewRateLimiter(20.0/60.0, 3)  // 20 messages per minute, burst of 3
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}

	return &RateLimiter{
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
