// Package feature 管理 routemetrics 的实验特性开关。
//
// 一个特性是否生效由两部分共同决定：
//   - 实例开关：启动参数或配置文件 features.metrics，随配置热更新
//   - 运行时开关：通过 PATCH /experimental-features 修改，持久化在 Store 中
//
// 两者任一为 true 即视为启用。请求路径上的 CheckMetrics 只读取内存快照，不访问 Store。
package feature

import (
	"context"

	"github.com/ceyewan/routemetrics/config"
)

// Features 实验特性集合
type Features struct {
	Metrics bool `json:"metrics" msgpack:"metrics"`
}

// Or 合并两组开关，任一启用即启用
func (f Features) Or(other Features) Features {
	return Features{Metrics: f.Metrics || other.Metrics}
}

// Patch 部分更新，nil 字段保持不变
type Patch struct {
	Metrics *bool `json:"metrics,omitempty"`
}

// Apply 将 Patch 应用到 f 上并返回新值
func (p Patch) Apply(f Features) Features {
	if p.Metrics != nil {
		f.Metrics = *p.Metrics
	}
	return f
}

// Service 特性开关服务，并发安全
type Service interface {
	// CheckMetrics 指标特性启用时返回 nil，否则返回 ErrFeatureNotEnabled
	CheckMetrics() error

	// Instance 返回实例级开关
	Instance() Features

	// Runtime 返回运行时开关
	Runtime() Features

	// SetInstance 替换实例级开关
	SetInstance(f Features)

	// Update 应用 Patch 并持久化运行时开关
	Update(ctx context.Context, patch Patch) (Features, error)

	// Refresh 从 Store 重新加载运行时开关
	Refresh(ctx context.Context) error

	// Run 按 RefreshInterval 周期性调用 Refresh，直到 ctx 结束
	Run(ctx context.Context) error

	// WatchConfig 监听 features.metrics 配置变更并更新实例开关，直到 ctx 结束
	WatchConfig(ctx context.Context, loader config.Loader) error

	// Close 释放 Store 持有的连接
	Close() error
}
