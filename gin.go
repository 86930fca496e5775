package routemetrics

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type ginRequest struct {
	c *gin.Context
}

func (r ginRequest) Context() context.Context { return r.c.Request.Context() }
func (r ginRequest) Method() string           { return r.c.Request.Method }
func (r ginRequest) Path() string             { return r.c.Request.URL.Path }

// Routes gin 在中间件执行前已完成路由匹配，直接使用 FullPath
func (r ginRequest) Routes() RouteMatcher {
	return RouteMatcherFunc(func(string) (string, bool) {
		pattern := r.c.FullPath()
		if pattern == "" {
			return "", false
		}
		return BracePattern(pattern), true
	})
}

// GinMiddleware 返回 gin 中间件，需安装在 feature.GinMiddleware 之后
//
// 下游的结果是 c.Errors.Last()，只读不消费。
func GinMiddleware(recorder Recorder, opts ...Option) gin.HandlerFunc {
	next := HandlerFunc[ginRequest, struct{}](func(r ginRequest) (struct{}, error) {
		r.c.Next()
		if err := r.c.Errors.Last(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	interceptor := New[ginRequest, struct{}](next, recorder, opts...)

	return func(c *gin.Context) {
		_, _ = interceptor.Handle(ginRequest{c: c})
	}
}

// BracePattern 将 gin 风格的模板转换为花括号风格
//
//	/tasks/:task_id       -> /tasks/{task_id}
//	/static/*filepath     -> /static/{filepath}
func BracePattern(pattern string) string {
	if !strings.ContainsAny(pattern, ":*") {
		return pattern
	}
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if len(seg) > 1 && (seg[0] == ':' || seg[0] == '*') {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
