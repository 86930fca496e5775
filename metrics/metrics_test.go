package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ceyewan/routemetrics/clog"
)

func newTestMeter(t *testing.T, cfg *Config) (Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	meter, err := New(cfg, WithReader(reader), WithLogger(clog.Discard()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = meter.Shutdown(context.Background()) })
	return meter, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// TestNew 测试创建 Meter 实例
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "disabled", cfg: &Config{Enabled: false}},
		{name: "minimal config", cfg: &Config{Enabled: true, ServiceName: "test-service"}},
		{name: "dev defaults", cfg: NewDevDefaultConfig("test-service")},
		{name: "prod defaults", cfg: NewProdDefaultConfig("test-service", "v1.0.0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meter, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if meter == nil {
				t.Fatal("New() returned nil meter")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meter.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestCounter(t *testing.T) {
	meter, reader := newTestMeter(t, &Config{Enabled: true})
	ctx := context.Background()

	counter, err := meter.Counter("http_requests_total", "HTTP requests")
	if err != nil {
		t.Fatalf("Counter() error = %v", err)
	}
	counter.Inc(ctx, L(LabelMethod, "GET"), L(LabelPath, "/tasks"))
	counter.Add(ctx, 2, L(LabelMethod, "GET"), L(LabelPath, "/tasks"))
	counter.Add(ctx, -5, L(LabelMethod, "GET"), L(LabelPath, "/tasks"))

	m, ok := collect(t, reader, "http_requests_total")
	if !ok {
		t.Fatal("counter not collected")
	}
	sum, ok := m.Data.(metricdata.Sum[float64])
	if !ok {
		t.Fatalf("data type = %T, want Sum[float64]", m.Data)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("got %d data points, want 1", len(sum.DataPoints))
	}
	dp := sum.DataPoints[0]
	if dp.Value != 3 {
		t.Errorf("value = %v, want 3", dp.Value)
	}
	if v, _ := dp.Attributes.Value(attribute.Key(LabelPath)); v.AsString() != "/tasks" {
		t.Errorf("path label = %q", v.AsString())
	}
}

func TestNamespacePrefix(t *testing.T) {
	meter, reader := newTestMeter(t, &Config{Enabled: true, Namespace: "search_"})

	counter, err := meter.Counter("http_requests_total", "HTTP requests")
	if err != nil {
		t.Fatalf("Counter() error = %v", err)
	}
	counter.Inc(context.Background())

	if _, ok := collect(t, reader, "search_http_requests_total"); !ok {
		t.Error("expected namespaced metric name search_http_requests_total")
	}
}

func TestGauge(t *testing.T) {
	meter, reader := newTestMeter(t, &Config{Enabled: true})
	ctx := context.Background()

	gauge, err := meter.Gauge("inflight", "in-flight requests")
	if err != nil {
		t.Fatalf("Gauge() error = %v", err)
	}
	gauge.Set(ctx, 5)
	gauge.Inc(ctx)
	gauge.Dec(ctx)
	gauge.Dec(ctx)

	m, ok := collect(t, reader, "inflight")
	if !ok {
		t.Fatal("gauge not collected")
	}
	g := m.Data.(metricdata.Gauge[float64])
	if len(g.DataPoints) != 1 || g.DataPoints[0].Value != 4 {
		t.Errorf("gauge data points = %+v, want single value 4", g.DataPoints)
	}
}

func TestHistogramBuckets(t *testing.T) {
	meter, reader := newTestMeter(t, &Config{Enabled: true})
	buckets := []float64{0.005, 0.01, 0.1, 1}

	hist, err := meter.Histogram("http_response_time_seconds", "latency",
		WithUnit("s"), WithBuckets(buckets))
	if err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	hist.Record(context.Background(), 0.05)

	m, ok := collect(t, reader, "http_response_time_seconds")
	if !ok {
		t.Fatal("histogram not collected")
	}
	if m.Unit != "s" {
		t.Errorf("unit = %q, want s", m.Unit)
	}
	h := m.Data.(metricdata.Histogram[float64])
	dp := h.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("count = %d, want 1", dp.Count)
	}
	if len(dp.Bounds) != len(buckets) {
		t.Errorf("bounds = %v, want %v", dp.Bounds, buckets)
	}
}

func TestHandler(t *testing.T) {
	meter, _ := newTestMeter(t, &Config{Enabled: true})

	counter, _ := meter.Counter("http_requests_total", "HTTP requests")
	counter.Inc(context.Background(), L(LabelMethod, "GET"), L(LabelPath, "/tasks/{task_id}"))

	rec := httptest.NewRecorder()
	meter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "http_requests_total") {
		t.Errorf("body missing counter:\n%s", body)
	}
	if !strings.Contains(body, `path="/tasks/{task_id}"`) {
		t.Errorf("body missing path label:\n%s", body)
	}
}

// TestHandlerIsolated 两个 Meter 的 Registry 互不可见
func TestHandlerIsolated(t *testing.T) {
	a, _ := newTestMeter(t, &Config{Enabled: true})
	b, _ := newTestMeter(t, &Config{Enabled: true})

	counter, _ := a.Counter("only_in_a_total", "a")
	counter.Inc(context.Background())

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if strings.Contains(rec.Body.String(), "only_in_a_total") {
		t.Error("meter b exposed a metric registered on meter a")
	}
}

func TestDiscard(t *testing.T) {
	meter := Discard()
	ctx := context.Background()

	c, _ := meter.Counter("c", "")
	c.Inc(ctx)
	g, _ := meter.Gauge("g", "")
	g.Set(ctx, 1)
	h, _ := meter.Histogram("h", "")
	h.Record(ctx, 1)

	rec := httptest.NewRecorder()
	meter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("noop handler status = %d, want 404", rec.Code)
	}
	if err := meter.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestMust(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Must(nil) should panic")
		}
	}()
	Must(nil)
}
