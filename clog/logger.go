// Package clog 为 routemetrics 提供基于 slog 的结构化日志组件。
// 支持 Context 字段提取、OpenTelemetry TraceID 关联和命名空间管理。
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	logger.Info("server started", clog.String("addr", ":7700"))
//
// 使用函数式选项：
//
//	logger, _ := clog.New(&clog.Config{Level: "info"},
//	    clog.WithNamespace("routemetrics", "server"),
//	    clog.WithStandardContext(), // 自动提取 request_id 等字段
//	    clog.WithTraceContext(),    // 自动提取 trace_id / span_id
//	)
package clog

import "context"

// Logger 日志接口，提供结构化日志记录功能
//
// 每个级别都有带 Context 和不带 Context 的版本，带 Context 的版本会
// 按照配置从 Context 中提取字段。
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	FatalContext(ctx context.Context, msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	//
	//   logger.WithNamespace("feature").WithNamespace("redis")
	//   // namespace=routemetrics.feature.redis
	WithNamespace(parts ...string) Logger

	// SetLevel 运行时调整日志级别，对所有共享同一 handler 的子 Logger 生效
	SetLevel(level Level) error

	// Flush 强制同步缓冲区
	Flush()
}
