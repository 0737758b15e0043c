package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tommy88/xparser/internal/observability/logging"
	"github.com/Tommy88/xparser/internal/observability/tracing"
)

// ChannelStatus is the health of one delivery channel.
type ChannelStatus struct {
	Name                string     `json:"name"`
	Enabled             bool       `json:"enabled"`
	Healthy             bool       `json:"healthy"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
	LastDeliveryAt      *time.Time `json:"last_delivery_at,omitempty"`
}

// BreakerStatus is the state of one circuit breaker ("closed", "half-open", "open").
type BreakerStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// StatusReport is the body of /health/channels.
type StatusReport struct {
	Healthy  bool            `json:"healthy"`
	Channels []ChannelStatus `json:"channels"`
	Breakers []BreakerStatus `json:"breakers"`
}

// StatusSources supplies the data behind /health/channels. Nil funcs report nothing.
type StatusSources struct {
	Channels func() []ChannelStatus
	Breakers func() []BreakerStatus
}

// StatusServer serves /metrics and /health/channels. The report is
// unhealthy (503) when an enabled channel is unhealthy or a breaker is open.
type StatusServer struct {
	addr    string
	logger  *slog.Logger
	sources StatusSources
}

// NewStatusServer creates a StatusServer listening on addr.
func NewStatusServer(addr string, logger *slog.Logger, sources StatusSources) *StatusServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusServer{addr: addr, logger: logger, sources: sources}
}

// Handler returns the routes wrapped in tracing.
func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health/channels", s.handleChannels)
	return tracing.Middleware(mux)
}

// Start serves until ctx is cancelled.
func (s *StatusServer) Start(ctx context.Context) error {
	return serve(ctx, s.logger, "metrics", &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})
}

// Report builds the current StatusReport.
func (s *StatusServer) Report() StatusReport {
	report := StatusReport{Healthy: true, Channels: []ChannelStatus{}, Breakers: []BreakerStatus{}}
	if s.sources.Channels != nil {
		report.Channels = append(report.Channels, s.sources.Channels()...)
	}
	if s.sources.Breakers != nil {
		report.Breakers = append(report.Breakers, s.sources.Breakers()...)
	}
	for _, c := range report.Channels {
		if c.Enabled && !c.Healthy {
			report.Healthy = false
		}
	}
	for _, b := range report.Breakers {
		if b.State == "open" {
			report.Healthy = false
		}
	}
	return report
}

func (s *StatusServer) handleChannels(w http.ResponseWriter, _ *http.Request) {
	report := s.Report()
	code := http.StatusOK
	if !report.Healthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error("failed to encode channel health", logging.Error(err))
	}
}
