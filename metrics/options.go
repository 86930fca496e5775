package metrics

import (
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ceyewan/routemetrics/clog"
)

// Option 配置 Meter 实例的选项
type Option func(*options)

type options struct {
	logger  clog.Logger
	readers []sdkmetric.Reader
}

// WithLogger 注入日志记录器，组件会自动添加 "metrics" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("metrics")
		}
	}
}

// WithReader 追加一个 OpenTelemetry Reader，与 Prometheus exporter 并存
//
// 测试中常配合 sdkmetric.NewManualReader() 直接读取数据点。
func WithReader(reader sdkmetric.Reader) Option {
	return func(o *options) {
		if reader != nil {
			o.readers = append(o.readers, reader)
		}
	}
}
