// Package metrics 为 routemetrics 提供统一的指标收集能力。
// 基于 OpenTelemetry SDK 构建，通过 Prometheus exporter 暴露，
// 提供简洁的 Counter、Gauge、Histogram 以及 Timer 接口。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{
//	    Enabled:     true,
//	    ServiceName: "routemetrics",
//	})
//	if err != nil {
//	    return err
//	}
//	defer meter.Shutdown(ctx)
//
//	counter, _ := meter.Counter("http_requests_total", "HTTP requests")
//	counter.Inc(ctx, metrics.L("method", "GET"))
//
//	router.GET("/metrics", gin.WrapH(meter.Handler()))
package metrics

import (
	"context"
	"net/http"
)

// Counter 计数器，只能增加的累计值
type Counter interface {
	// Inc 将计数器增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值，负数会被忽略
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘，可以任意增减的瞬时值
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
	Inc(ctx context.Context, labels ...Label)
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 直方图，记录值的分布，例如请求耗时
type Histogram interface {
	// Record 在直方图中记录一个值
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标创建工厂
//
// Meter 创建的指标是并发安全的，可以在多个 goroutine 中共享。
type Meter interface {
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 文本格式的采集端点
	Handler() http.Handler

	// Shutdown 关闭 Meter，刷新所有指标
	Shutdown(ctx context.Context) error
}

// MetricOption 指标配置选项
type MetricOption func(*MetricOptions)

// MetricOptions 指标选项
type MetricOptions struct {
	// Unit 指标单位，建议使用 UCUM 代码，例如 "s"、"By"
	Unit string

	// Buckets 直方图桶边界，仅对 Histogram 生效
	Buckets []float64
}

// WithUnit 设置指标的单位
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// WithBuckets 设置直方图的显式桶边界
func WithBuckets(buckets []float64) MetricOption {
	return func(o *MetricOptions) {
		o.Buckets = append([]float64(nil), buckets...)
	}
}

func applyMetricOptions(opts []MetricOption) *MetricOptions {
	o := &MetricOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
