package notifier

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("burst passes immediately", func(t *testing.T) {
		limiter := NewRateLimiter(20.0/60.0, 3)

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := limiter.Allow(context.Background()); err != nil {
				t.Fatalf("burst request %d should succeed: %v", i+1, err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("burst took %v, want immediate", elapsed)
		}
	})

	t.Run("request beyond burst waits", func(t *testing.T) {
		limiter := NewRateLimiter(1.0, 1)
		if err := limiter.Allow(context.Background()); err != nil {
			t.Fatalf("first request should succeed: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := limiter.Allow(ctx); err == nil {
			t.Error("expected the second request to be held back past the deadline")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		limiter := NewRateLimiter(0.1, 1)
		_ = limiter.Allow(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- limiter.Allow(ctx) }()
		time.Sleep(20 * time.Millisecond)
		cancel()

		if err := <-errCh; err == nil {
			t.Error("expected cancellation error")
		}
	})
}

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		burst     int
		wantLimit rate.Limit
		wantBurst int
	}{
		{name: "telegram group pacing", rps: 20.0 / 60.0, burst: 3, wantLimit: rate.Limit(20.0 / 60.0), wantBurst: 3},
		{name: "non-positive rate disables pacing", rps: 0, burst: 1, wantLimit: rate.Inf, wantBurst: 1},
		{name: "zero burst is raised to one", rps: 1, burst: 0, wantLimit: rate.Limit(1), wantBurst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewRateLimiter(tt.rps, tt.burst)
			if got := limiter.limiter.Limit(); got != tt.wantLimit {
				t.Errorf("Limit() = %v, want %v", got, tt.wantLimit)
			}
			if limiter.burst != tt.wantBurst {
				t.Errorf("burst = %d, want %d", limiter.burst, tt.wantBurst)
			}
		})
	}
}
