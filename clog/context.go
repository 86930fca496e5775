package clog

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NamespaceKey 是日志中命名空间的字段名
const NamespaceKey = "namespace"

type requestIDKey struct{}

// RequestIDKey 是请求 ID 在 Context 中的键，由 HTTP 中间件写入
var RequestIDKey = requestIDKey{}

// WithRequestID 将请求 ID 写入 Context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFrom 读取 Context 中的请求 ID
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// extractContextFields 按规则从 ctx 提取字段并追加到 attrs
func extractContextFields(ctx context.Context, o *options, attrs []slog.Attr) []slog.Attr {
	if ctx == nil || o == nil {
		return attrs
	}

	for _, cf := range o.contextFields {
		if val := ctx.Value(cf.Key); val != nil {
			attrs = append(attrs, slog.Any(cf.FieldName, val))
		}
	}

	if o.enableTraceExtraction {
		sc := trace.SpanContextFromContext(ctx)
		if sc.IsValid() {
			attrs = append(attrs,
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}
	return attrs
}

// namespaceAttr 生成命名空间字段，没有命名空间时返回 false
func namespaceAttr(o *options) (slog.Attr, bool) {
	if o == nil || len(o.namespaceParts) == 0 {
		return slog.Attr{}, false
	}
	return slog.String(NamespaceKey, strings.Join(o.namespaceParts, ".")), true
}
