package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetup_LogsFinishedSpans(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	shutdown := Setup(logger)

	ctx, parent := StartSpan(context.Background(), "catalog.pass")
	_, child := StartSpan(ctx, "catalog.fetch", attribute.Int("pages", 3))
	child.End()
	parent.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"msg":"span catalog.fetch"`)
	assert.Contains(t, out, `"pages":"3"`)
	assert.Contains(t, out, `"parent_id"`)
	assert.Contains(t, out, `"msg":"span catalog.pass"`)
}

func TestLogExporter_SilentAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	e := &logExporter{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, e.ExportSpans(context.Background(), nil))
	assert.Empty(t, buf.String())
}
