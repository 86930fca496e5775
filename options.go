package routemetrics

import (
	"github.com/ceyewan/routemetrics/clog"
)

// Option 配置拦截器的选项
type Option func(*options)

type options struct {
	policy *Policy
	logger clog.Logger
}

// WithPolicy 替换默认的标签归一化策略
func WithPolicy(p *Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithLogger 注入日志记录器，组件会自动添加 "routemetrics" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("routemetrics")
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		policy: DefaultPolicy(),
		logger: clog.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
