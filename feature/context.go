package feature

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

type contextKey struct{}

// NewContext 将 Service 放入 ctx
func NewContext(ctx context.Context, svc Service) context.Context {
	return context.WithValue(ctx, contextKey{}, svc)
}

// FromContext 从 ctx 取出 Service
func FromContext(ctx context.Context) (Service, bool) {
	if ctx == nil {
		return nil, false
	}
	svc, ok := ctx.Value(contextKey{}).(Service)
	return svc, ok && svc != nil
}

// GinMiddleware 把 Service 注入每个请求的 context，需安装在指标中间件之前
func GinMiddleware(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), svc))
		c.Next()
	}
}

// HTTPMiddleware 标准库版本的 GinMiddleware
func HTTPMiddleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), svc)))
		})
	}
}

// UnaryServerInterceptor gRPC 版本的 GinMiddleware
func UnaryServerInterceptor(svc Service) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(NewContext(ctx, svc), req)
	}
}
