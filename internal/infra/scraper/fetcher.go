package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"github.com/Tommy88/xparser/internal/resilience/circuitbreaker"
	"github.com/Tommy88/xparser/internal/resilience/retry"
)

const (
	maxBodySize    = 10 * 1024 * 1024 // 10MB
	defaultTimeout = 30 * time.Second
)

// PageFetcher downloads and parses listing pages. Each Fetch retries with the
// configured policy and every attempt passes through a circuit breaker.
type PageFetcher struct {
	client         *http.Client
	headers        map[string]string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// FetcherOption customises a PageFetcher.
type FetcherOption func(*PageFetcher)

// WithRetryConfig replaces the default catalog retry policy.
func WithRetryConfig(cfg retry.Config) FetcherOption {
	return func(f *PageFetcher) { f.retryConfig = cfg }
}

// WithCircuitBreaker replaces the default catalog circuit breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) FetcherOption {
	return func(f *PageFetcher) { f.circuitBreaker = cb }
}

// NewPageFetcher creates a fetcher that sends headers with every request.
// A nil client gets a 30s timeout client.
func NewPageFetcher(client *http.Client, headers map[string]string, opts ...FetcherOption) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	f := &PageFetcher{
		client:         client,
		headers:        headers,
		circuitBreaker: circuitbreaker.New(circuitbreaker.CatalogFetchConfig()),
		retryConfig:    retry.CatalogFetchConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}

	base := f.retryConfig.Retryable
	if base == nil {
		base = retry.IsRetryable
	}
	f.retryConfig.Retryable = func(err error) bool {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false
		}
		return base(err)
	}
	return f
}

// Breaker exposes the fetcher's circuit breaker for health reporting.
func (f *PageFetcher) Breaker() *circuitbreaker.CircuitBreaker {
	return f.circuitBreaker
}

// Fetch downloads pageURL and parses it. Non-200 responses are failures.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, pageURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("catalog circuit breaker open, request rejected",
					slog.String("url", pageURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		doc = result.(*goquery.Document)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return doc, nil
}

func (f *PageFetcher) doFetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	slog.Debug("catalog page fetched",
		slog.String("url", pageURL),
		slog.Duration("duration", time.Since(start)))
	return doc, nil
}
