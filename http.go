package routemetrics

import (
	"context"
	"net/http"
	"strings"
)

type httpRequest struct {
	w   http.ResponseWriter
	r   *http.Request
	mux *http.ServeMux
}

func (r httpRequest) Context() context.Context { return r.r.Context() }
func (r httpRequest) Method() string           { return r.r.Method }
func (r httpRequest) Path() string             { return r.r.URL.Path }

func (r httpRequest) Routes() RouteMatcher {
	if r.mux == nil {
		return nil
	}
	return RouteMatcherFunc(func(string) (string, bool) {
		_, pattern := r.mux.Handler(r.r)
		pattern = muxPattern(pattern)
		return pattern, pattern != ""
	})
}

// HTTPMiddleware 返回标准库中间件，路由模板从 mux 解析
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /tasks/{task_id}", getTask)
//	handler := feature.HTTPMiddleware(svc)(routemetrics.HTTPMiddleware(mux, recorder)(mux))
func HTTPMiddleware(mux *http.ServeMux, recorder Recorder, opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		call := HandlerFunc[httpRequest, struct{}](func(r httpRequest) (struct{}, error) {
			next.ServeHTTP(r.w, r.r)
			return struct{}{}, nil
		})
		interceptor := New[httpRequest, struct{}](call, recorder, opts...)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = interceptor.Handle(httpRequest{w: w, r: r, mux: mux})
		})
	}
}

// muxPattern 去掉 ServeMux 模板中的方法与主机名
//
//	"GET /tasks/{task_id}"    -> /tasks/{task_id}
//	"example.com/static/"     -> /static/
//	"/files/{path...}"        -> /files/{path}
func muxPattern(pattern string) string {
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = strings.TrimSpace(pattern[i+1:])
	}
	if pattern != "" && pattern[0] != '/' {
		i := strings.IndexByte(pattern, '/')
		if i < 0 {
			return ""
		}
		pattern = pattern[i:]
	}
	pattern = strings.TrimSuffix(pattern, "{$}")
	return strings.ReplaceAll(pattern, "...}", "}")
}
