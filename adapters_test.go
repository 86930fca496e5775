package routemetrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/testkit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func pathLabels(samples []testkit.Sample) []string {
	labels := make([]string, 0, len(samples))
	for _, s := range samples {
		p, _ := s.Label("path")
		labels = append(labels, p)
	}
	return labels
}

func newGinRouter(t *testing.T, svc feature.Service, rec Recorder) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(gin.Recovery())
	if svc != nil {
		r.Use(feature.GinMiddleware(svc))
	}
	r.Use(GinMiddleware(rec))

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/tasks/:task_id", ok)
	r.GET("/keys/:key", ok)
	r.GET("/static/*filepath", ok)
	r.GET("/manifest.json", ok)
	r.POST("/indexes/:index_uid/documents", func(c *gin.Context) {
		_ = c.Error(errors.New("invalid payload"))
		c.Status(http.StatusBadRequest)
	})
	return r
}

func TestGinMiddleware(t *testing.T) {
	rec, meter := newRecorder(t)
	r := newGinRouter(t, testkit.NewFeatures(t, true), rec)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/tasks/42").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/keys/abcdef").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/static/js/app.js").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/manifest.json").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/indexes/movies/documents").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nowhere").Code)

	want := []string{"/tasks/{task_id}", StaticResourceLabel, StaticResourceLabel, "/indexes/{index_uid}/documents"}
	assert.Equal(t, want, pathLabels(meter.CounterSamples(MetricRequestsTotal)))
	assert.Equal(t, want, pathLabels(meter.HistogramSamples(MetricResponseTimeSeconds)))
}

func TestGinMiddlewareErrorsNotConsumed(t *testing.T) {
	rec, _ := newRecorder(t)
	r := newGinRouter(t, testkit.NewFeatures(t, true), rec)

	var seen int
	r.Use(func(c *gin.Context) {
		c.Next()
		seen = len(c.Errors)
	})
	r.POST("/probe", func(c *gin.Context) {
		_ = c.Error(errors.New("first"))
		_ = c.Error(errors.New("second"))
	})

	serve(r, http.MethodPost, "/probe")
	assert.Equal(t, 2, seen)
}

func TestGinMiddlewareDisabled(t *testing.T) {
	rec, meter := newRecorder(t)
	r := newGinRouter(t, testkit.NewFeatures(t, false), rec)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/tasks/42").Code)
	assert.Empty(t, meter.CounterSamples(MetricRequestsTotal))
}

func TestGinMiddlewareMissingFeatureService(t *testing.T) {
	rec, meter := newRecorder(t)
	r := newGinRouter(t, nil, rec)

	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/tasks/42").Code)
	assert.Empty(t, meter.CounterSamples(MetricRequestsTotal))
}

func TestHTTPMiddleware(t *testing.T) {
	rec, meter := newRecorder(t)
	svc := testkit.NewFeatures(t, true)

	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) }
	mux.HandleFunc("GET /tasks/{task_id}", ok)
	mux.HandleFunc("GET /keys/{key}", ok)
	mux.HandleFunc("GET /fonts/", ok)
	mux.HandleFunc("POST /indexes/{index_uid}/documents", ok)

	h := feature.HTTPMiddleware(svc)(HTTPMiddleware(mux, rec)(mux))

	assert.Equal(t, http.StatusAccepted, serve(h, http.MethodGet, "/tasks/7").Code)
	assert.Equal(t, http.StatusAccepted, serve(h, http.MethodGet, "/keys/abc").Code)
	assert.Equal(t, http.StatusAccepted, serve(h, http.MethodGet, "/fonts/inter.woff2").Code)
	assert.Equal(t, http.StatusAccepted, serve(h, http.MethodPost, "/indexes/movies/documents").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/nowhere").Code)

	assert.Equal(t,
		[]string{"/tasks/{task_id}", StaticResourceLabel, "/indexes/{index_uid}/documents"},
		pathLabels(meter.CounterSamples(MetricRequestsTotal)))
}

func TestChiMiddleware(t *testing.T) {
	rec, meter := newRecorder(t)
	svc := testkit.NewFeatures(t, true)

	r := chi.NewRouter()
	r.Use(feature.HTTPMiddleware(svc), ChiMiddleware(r, rec))
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Get("/tasks/{task_id}", ok)
	r.Get("/keys", ok)
	r.Get("/static/*", ok)
	r.Route("/api", func(r chi.Router) {
		r.Get("/indexes/{index_uid}", ok)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/tasks/1").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/keys").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/static/app.css").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/indexes/movies").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nowhere").Code)

	assert.Equal(t,
		[]string{"/tasks/{task_id}", StaticResourceLabel, "/api/indexes/{index_uid}"},
		pathLabels(meter.CounterSamples(MetricRequestsTotal)))
}

func TestUnaryServerInterceptor(t *testing.T) {
	rec, meter := newRecorder(t)
	svc := testkit.NewFeatures(t, true)
	interceptor := UnaryServerInterceptor(rec)
	ctx := feature.NewContext(context.Background(), svc)
	info := &grpc.UnaryServerInfo{FullMethod: "/search.v1.Search/Query"}

	resp, err := interceptor(ctx, "q", info, func(_ context.Context, req any) (any, error) {
		return req.(string) + "!", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "q!", resp)

	wantErr := status.Error(codes.NotFound, "index not found")
	_, err = interceptor(ctx, "q", info, func(context.Context, any) (any, error) {
		return nil, wantErr
	})
	assert.Same(t, wantErr, err)

	counts := meter.CounterSamples(MetricRequestsTotal)
	require.Len(t, counts, 2)
	method, _ := counts[0].Label("method")
	path, _ := counts[0].Label("path")
	assert.Equal(t, MethodGRPC, method)
	assert.Equal(t, "/search.v1.Search/Query", path)
	assert.Len(t, meter.HistogramSamples(MetricResponseTimeSeconds), 2)
}
