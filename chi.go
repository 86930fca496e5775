package routemetrics

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
)

type chiRequest struct {
	w      http.ResponseWriter
	r      *http.Request
	routes chi.Routes
}

func (r chiRequest) Context() context.Context { return r.r.Context() }
func (r chiRequest) Method() string           { return r.r.Method }
func (r chiRequest) Path() string             { return r.r.URL.Path }

func (r chiRequest) Routes() RouteMatcher {
	if r.routes == nil {
		return nil
	}
	return RouteMatcherFunc(func(path string) (string, bool) {
		rctx := chi.NewRouteContext()
		if !r.routes.Match(rctx, r.r.Method, path) {
			return "", false
		}
		pattern := chiPattern(rctx.RoutePatterns)
		return pattern, pattern != ""
	})
}

// ChiMiddleware 返回 chi 中间件，路由模板通过 routes.Match 在转发前解析
//
//	r := chi.NewRouter()
//	r.Use(feature.HTTPMiddleware(svc), routemetrics.ChiMiddleware(r, recorder))
func ChiMiddleware(routes chi.Routes, recorder Recorder, opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		call := HandlerFunc[chiRequest, struct{}](func(r chiRequest) (struct{}, error) {
			next.ServeHTTP(r.w, r.r)
			return struct{}{}, nil
		})
		interceptor := New[chiRequest, struct{}](call, recorder, opts...)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = interceptor.Handle(chiRequest{w: w, r: r, routes: routes})
		})
	}
}

// chiPattern 拼接嵌套路由的模板，["/api/*", "/tasks/{task_id}"] -> /api/tasks/{task_id}
func chiPattern(patterns []string) string {
	var b strings.Builder
	for _, p := range patterns {
		b.WriteString(p)
	}
	return strings.ReplaceAll(b.String(), "/*/", "/")
}
