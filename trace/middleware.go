package trace

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/metric/noop"
	"google.golang.org/grpc/stats"
)

// 探活与指标抓取不产生 Span
var untracedRoutes = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const grpcHealthPrefix = "/grpc.health.v1.Health/"

// GinMiddleware 返回 Gin 跟踪中间件，跳过 /health 与 /metrics
//
// 只产生 Span，不记录指标：请求指标由 routemetrics 按特性开关与标签策略统一记录。
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithMeterProvider(noop.NewMeterProvider()),
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			_, skip := untracedRoutes[c.FullPath()]
			return !skip
		}),
	)
}

// GRPCServerStatsHandler 返回 gRPC 服务端跟踪处理器，跳过健康检查，同样不记录指标
func GRPCServerStatsHandler() stats.Handler {
	return otelgrpc.NewServerHandler(
		otelgrpc.WithMeterProvider(noop.NewMeterProvider()),
		otelgrpc.WithFilter(func(info *stats.RPCTagInfo) bool {
			return !strings.HasPrefix(info.FullMethodName, grpcHealthPrefix)
		}),
	)
}
