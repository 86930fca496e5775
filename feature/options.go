package feature

import (
	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/metrics"
)

// Option 配置 Service 的选项
type Option func(*options)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
	store  Store
}

// WithLogger 注入日志记录器，组件会自动添加 "feature" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("feature")
		}
	}
}

// WithMeter 注入指标，Service 通过 Gauge 上报特性的生效状态
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithStore 指定运行时开关的存储，优先于 Config.Store
func WithStore(store Store) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
	}
}
