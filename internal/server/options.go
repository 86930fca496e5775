package server

import (
	"io/fs"

	"github.com/ceyewan/routemetrics"
	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/metrics"
)

// Option 服务选项
type Option func(*options)

type options struct {
	logger  clog.Logger
	meter   metrics.Meter
	assets  fs.FS
	policy  *routemetrics.Policy
	tasks   *TaskQueue
	release bool
}

// WithLogger 设置 Logger
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("server")
		}
	}
}

// WithMeter 设置 Meter，/metrics 导出的就是它
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithAssets 设置静态资源目录，包含 static/、fonts/、favicon.ico、manifest.json
func WithAssets(fsys fs.FS) Option {
	return func(o *options) {
		o.assets = fsys
	}
}

// WithPolicy 替换路由标签策略
func WithPolicy(p *routemetrics.Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithTaskQueue 使用外部创建的任务队列
func WithTaskQueue(q *TaskQueue) Option {
	return func(o *options) {
		if q != nil {
			o.tasks = q
		}
	}
}

// WithReleaseMode 使用 gin.ReleaseMode
func WithReleaseMode() Option {
	return func(o *options) {
		o.release = true
	}
}
