package trace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func setupTracerForTest(t *testing.T) (oteltrace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	otel.SetTracerProvider(tp)
	setPropagator()
	return tp.Tracer("test"), recorder
}

func findSpan(recorder *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	for _, s := range recorder.Ended() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestInitValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "missing service", cfg: &Config{Enabled: true, Endpoint: "localhost:4317"}},
		{name: "missing endpoint", cfg: &Config{Enabled: true, ServiceName: "svc"}},
		{name: "bad sampler", cfg: &Config{Enabled: true, ServiceName: "svc", Endpoint: "x", Sampler: 2}},
		{name: "bad batcher", cfg: &Config{Enabled: true, ServiceName: "svc", Endpoint: "x", Sampler: 1, Batcher: "stream"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Init(tt.cfg); err == nil {
				t.Fatal("Init() should fail")
			}
		})
	}
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(&Config{ServiceName: "routemetrics"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	defer span.End()
	if !span.SpanContext().TraceID().IsValid() {
		t.Fatal("disabled tracing should still generate trace ids")
	}
}

func TestInjectExtract(t *testing.T) {
	tracer, _ := setupTracerForTest(t)

	ctx, span := tracer.Start(context.Background(), "request")
	defer span.End()

	carrier := map[string]string{}
	Inject(ctx, carrier)
	if carrier["traceparent"] == "" {
		t.Fatal("traceparent should be injected")
	}

	got := oteltrace.SpanContextFromContext(Extract(context.Background(), carrier))
	if got.TraceID() != span.SpanContext().TraceID() {
		t.Fatal("extracted trace id mismatch")
	}

	Inject(ctx, nil)
	if got := oteltrace.SpanContextFromContext(Extract(context.Background(), nil)); got.IsValid() {
		t.Fatal("empty carrier should not produce a span context")
	}
}

func TestStartEnqueueSpan(t *testing.T) {
	tracer, recorder := setupTracerForTest(t)

	meta := TaskMeta{UID: 7, Type: "documentAdditionOrUpdate", IndexUID: "movies"}
	_, span, carrier := StartEnqueueSpan(context.Background(), tracer, meta)
	span.End()

	if carrier["traceparent"] == "" {
		t.Fatal("traceparent should be injected")
	}
	s := findSpan(recorder, SpanNameTaskEnqueue(meta.Type))
	if s == nil {
		t.Fatal("enqueue span not found")
	}
	if s.SpanKind() != oteltrace.SpanKindProducer {
		t.Errorf("span kind = %v, want producer", s.SpanKind())
	}
}

func TestStartProcessSpanUsesLink(t *testing.T) {
	tracer, recorder := setupTracerForTest(t)

	meta := TaskMeta{UID: 1, Type: "documentAdditionOrUpdate", IndexUID: "movies"}
	_, enqueue, carrier := StartEnqueueSpan(context.Background(), tracer, meta)
	enqueueSC := enqueue.SpanContext()
	enqueue.End()

	_, process := StartProcessSpan(context.Background(), tracer, carrier, meta)
	process.End()

	s := findSpan(recorder, SpanNameTaskProcess(meta.Type))
	if s == nil {
		t.Fatal("process span not found")
	}
	if s.Parent().IsValid() {
		t.Fatal("process span should not use the enqueue span as parent")
	}
	if len(s.Links()) != 1 || s.Links()[0].SpanContext.TraceID() != enqueueSC.TraceID() {
		t.Fatalf("links = %v, want one link to the enqueue span", s.Links())
	}
}

func TestStartProcessSpanChildOf(t *testing.T) {
	tracer, recorder := setupTracerForTest(t)

	meta := TaskMeta{UID: 2, Type: "documentAdditionOrUpdate", Relation: TaskRelationChildOf}
	_, enqueue, carrier := StartEnqueueSpan(context.Background(), tracer, meta)
	enqueueSC := enqueue.SpanContext()
	enqueue.End()

	_, process := StartProcessSpan(context.Background(), tracer, carrier, meta)
	process.End()

	s := findSpan(recorder, SpanNameTaskProcess(meta.Type))
	if s == nil {
		t.Fatal("process span not found")
	}
	if s.Parent().SpanID() != enqueueSC.SpanID() {
		t.Fatal("process span parent should be the enqueue span")
	}
	if len(s.Links()) != 0 {
		t.Fatalf("links = %d, want 0 in child_of mode", len(s.Links()))
	}
}

func TestStartProcessSpanWithoutCarrier(t *testing.T) {
	tracer, recorder := setupTracerForTest(t)

	_, span := StartProcessSpan(context.Background(), tracer, nil, TaskMeta{UID: 3})
	span.End()

	s := findSpan(recorder, SpanNameTaskProcess(""))
	if s == nil {
		t.Fatal("process span not found")
	}
	if len(s.Links()) != 0 {
		t.Fatal("process span without carrier should have no links")
	}
}

func TestMarkSpanError(t *testing.T) {
	tracer, recorder := setupTracerForTest(t)
	_, span := tracer.Start(context.Background(), "work")
	MarkSpanError(span, errors.New("boom"))
	MarkSpanError(span, nil)
	MarkSpanError(nil, errors.New("ignored"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("status code = %v, want error", spans[0].Status().Code)
	}
}

func TestGinMiddlewareSkipsProbes(t *testing.T) {
	_, recorder := setupTracerForTest(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(GinMiddleware("routemetrics"))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/health", ok)
	r.GET("/metrics", ok)
	r.GET("/tasks/:task_id", ok)

	for _, target := range []string{"/health", "/metrics", "/tasks/1"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if spans := recorder.Ended(); len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1 (only /tasks/1)", len(spans))
	}
}
