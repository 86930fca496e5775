package clog

import "io"

// ContextField 定义从 Context 中提取字段的规则
type ContextField struct {
	Key       any    // Context 中存储的键
	FieldName string // 日志中的字段名
}

// Option 函数式选项，用于配置 Logger 实例
type Option func(*options)

type options struct {
	namespaceParts        []string
	contextFields         []ContextField
	writer                io.Writer // Output 为 "buffer" 时使用，测试专用
	enableTraceExtraction bool
}

// WithNamespace 设置日志命名空间，多级命名空间以 "." 连接
//
//	clog.WithNamespace("routemetrics", "server") // namespace=routemetrics.server
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespaceParts = append(o.namespaceParts, parts...)
	}
}

// WithContextField 添加自定义的 Context 字段提取规则
func WithContextField(key any, fieldName string) Option {
	return func(o *options) {
		o.contextFields = append(o.contextFields, ContextField{
			Key:       key,
			FieldName: fieldName,
		})
	}
}

// WithStandardContext 自动提取 request_id、trace_id、user_id
//
// 请求 ID 由 RequestIDKey 写入 Context。
func WithStandardContext() Option {
	return func(o *options) {
		o.contextFields = append(o.contextFields,
			ContextField{Key: RequestIDKey, FieldName: "request_id"},
			ContextField{Key: "trace_id", FieldName: "trace_id"},
			ContextField{Key: "user_id", FieldName: "user_id"},
		)
	}
}

// WithTraceContext 开启 OpenTelemetry TraceID/SpanID 自动提取
func WithTraceContext() Option {
	return func(o *options) {
		o.enableTraceExtraction = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
