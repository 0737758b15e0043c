package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installRecorder installs an in-memory exporter for the duration of the test.
func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter := installRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /health" {
		t.Errorf("span name = %q, want %q", span.Name, "GET /health")
	}

	found := map[string]bool{}
	for _, attr := range span.Attributes {
		found[string(attr.Key)] = true
		if attr.Key == "http.status_code" && attr.Value.AsInt64() != 200 {
			t.Errorf("http.status_code = %d, want 200", attr.Value.AsInt64())
		}
	}
	for _, key := range []string{"http.method", "http.path", "http.status_code"} {
		if !found[key] {
			t.Errorf("attribute %s not found", key)
		}
	}

	if got := rr.Header().Get("X-Trace-Id"); len(got) != 32 {
		t.Errorf("X-Trace-Id = %q, want 32 hex characters", got)
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter := installRecorder(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator()) })

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %s, want propagated id", got)
	}
}

func TestMiddleware_MarksErrorSpansFor5xx(t *testing.T) {
	exporter := installRecorder(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
}

func TestStartSpanAndFail(t *testing.T) {
	exporter := installRecorder(t)

	ctx, parent := StartSpan(context.Background(), "catalog.pass")
	_, child := StartSpan(ctx, "catalog.fetch")
	Fail(child, errors.New("boom"))
	Fail(child, nil)
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	fetch := spans[0]
	if fetch.Name != "catalog.fetch" || fetch.Status.Code != codes.Error {
		t.Errorf("child span = %s/%v, want catalog.fetch/Error", fetch.Name, fetch.Status.Code)
	}
	if fetch.Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("fetch span is not a child of the pass span")
	}
	if len(fetch.Events) != 1 {
		t.Errorf("events = %d, want 1 recorded error", len(fetch.Events))
	}
}
