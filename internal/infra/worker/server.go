package worker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tommy88/xparser/internal/observability/logging"
)

const shutdownTimeout = 5 * time.Second

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
// It returns http.ErrServerClosed after a clean shutdown.
func serve(ctx context.Context, logger *slog.Logger, name string, srv *http.Server) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info(name+" server starting", slog.String("addr", srv.Addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info(name + " server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(name+" server shutdown failed", logging.Error(err))
			return err
		}
		logger.Info(name + " server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" server failed", logging.Error(err))
		}
		return err
	}
}
