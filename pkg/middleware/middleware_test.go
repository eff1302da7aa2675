package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// =============================================================================
// Test Helpers
// =============================================================================

type recordedSpan struct {
	noop.Span
	mu     sync.Mutex
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	ended  bool
}

func (s *recordedSpan) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

func (s *recordedSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	s := &recordedSpan{name: name, attrs: make(map[attribute.Key]attribute.Value)}
	cfg := trace.NewSpanStartConfig(opts...)
	s.SetAttributes(cfg.Attributes()...)
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

func testRouter(mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chi.URLParam(r, "id")))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

// =============================================================================
// Prometheus
// =============================================================================

func TestPrometheusLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := testRouter(Prometheus(WithRegistry(reg)))

	serve(r, "/items/1")
	serve(r, "/items/2")
	serve(r, "/boom")
	serve(r, "/nowhere")

	got := counterValue(t, reg, "fiber_http_requests_total",
		map[string]string{"route": "/items/{id}", "method": "GET", "status": "200"})
	if got != 2 {
		t.Errorf("requests{/items/{id},200} = %v, want 2", got)
	}
	got = counterValue(t, reg, "fiber_http_requests_total",
		map[string]string{"route": "/boom", "status": "500"})
	if got != 1 {
		t.Errorf("requests{/boom,500} = %v, want 1", got)
	}
	got = counterValue(t, reg, "fiber_http_requests_total",
		map[string]string{"route": "unmatched", "status": "404"})
	if got != 1 {
		t.Errorf("requests{unmatched,404} = %v, want 1", got)
	}
	got = counterValue(t, reg, "fiber_http_request_duration_seconds",
		map[string]string{"route": "/items/{id}"})
	if got != 2 {
		t.Errorf("duration samples = %v, want 2", got)
	}
	if got := counterValue(t, reg, "fiber_http_requests_in_flight", nil); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestPrometheusFilter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := testRouter(Prometheus(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem(""),
		WithMetricsFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
	))

	serve(r, "/healthz")
	serve(r, "/items/7")

	if got := counterValue(t, reg, "app_requests_total", map[string]string{"route": "/healthz"}); got != 0 {
		t.Errorf("filtered requests = %v, want 0", got)
	}
	if got := counterValue(t, reg, "app_requests_total", map[string]string{"route": "/items/{id}"}); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestPrometheusPassesResponseThrough(t *testing.T) {
	r := testRouter(Prometheus(WithRegistry(prometheus.NewRegistry())))
	rec := serve(r, "/items/abc")
	if rec.Code != http.StatusOK || rec.Body.String() != "abc" {
		t.Errorf("response = %d %q, want 200 \"abc\"", rec.Code, rec.Body.String())
	}
}

// =============================================================================
// OpenTelemetry
// =============================================================================

func TestOpenTelemetrySpanPerRequest(t *testing.T) {
	tracer := &recordingTracer{}
	r := testRouter(OpenTelemetry(WithTracer(tracer)))

	serve(r, "/items/42")
	serve(r, "/boom")

	if len(tracer.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(tracer.spans))
	}

	ok := tracer.spans[0]
	if ok.name != "GET /items/{id}" {
		t.Errorf("span name = %q, want %q", ok.name, "GET /items/{id}")
	}
	if got := ok.attrs["http.target"].AsString(); got != "/items/42" {
		t.Errorf("http.target = %q, want /items/42", got)
	}
	if got := ok.attrs["http.status_code"].AsInt64(); got != 200 {
		t.Errorf("http.status_code = %d, want 200", got)
	}
	if ok.status != codes.Ok {
		t.Errorf("status = %v, want Ok", ok.status)
	}
	if !ok.ended {
		t.Error("span was not ended")
	}

	failed := tracer.spans[1]
	if failed.status != codes.Error {
		t.Errorf("status for 500 = %v, want Error", failed.status)
	}
}

func TestOpenTelemetryContextReachesHandler(t *testing.T) {
	tracer := &recordingTracer{}
	var seen trace.Span
	h := OpenTelemetry(WithTracer(tracer))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.SpanFromContext(r.Context())
	}))

	serve(h, "/anything")

	if len(tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tracer.spans))
	}
	if seen != trace.Span(tracer.spans[0]) {
		t.Error("handler did not see the request span")
	}
	if tracer.spans[0].name != "GET unmatched" {
		t.Errorf("span name = %q, want %q", tracer.spans[0].name, "GET unmatched")
	}
}

func TestOpenTelemetryFilterAndAttributes(t *testing.T) {
	tracer := &recordingTracer{}
	r := testRouter(OpenTelemetry(
		WithTracer(tracer),
		WithFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	))

	serve(r, "/healthz")
	serve(r, "/items/1")

	if len(tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tracer.spans))
	}
	if got := tracer.spans[0].attrs["test.attr"].AsString(); got != "ok" {
		t.Errorf("test.attr = %q, want ok", got)
	}
}
