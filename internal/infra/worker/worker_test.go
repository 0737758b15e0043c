package worker

import (
	"io"
	"log/slog"
)

var testMetrics = NewWorkerMetrics()

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
