package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ceyewan/routemetrics/clog"
)

// HeaderRequestID 响应中回写的请求 ID 头
const HeaderRequestID = "X-Request-Id"

var requestIDHeaders = []string{"X-Request-Id", "Request-Id"}

// requestIDFrom 取请求头中的请求 ID，没有则生成一个
func requestIDFrom(c *gin.Context) string {
	for _, h := range requestIDHeaders {
		if id := c.GetHeader(h); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// RequestID 为每个请求注入请求 ID，日志通过 clog.WithStandardContext 自动带出
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestIDFrom(c)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(clog.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
