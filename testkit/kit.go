// Package testkit 提供 routemetrics 测试共用的依赖构造与断言工具。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/metrics"
)

// Kit 包含通用的测试依赖
type Kit struct {
	Ctx    context.Context
	Logger clog.Logger
	Meter  metrics.Meter
	// Reader 直接读取 Meter 上的数据点
	Reader *sdkmetric.ManualReader
}

// NewKit 返回一个包含默认依赖的测试工具包，Meter 在测试结束时关闭
func NewKit(t *testing.T) *Kit {
	t.Helper()
	meter, reader := NewMeter(t)
	return &Kit{
		Ctx:    context.Background(),
		Logger: NewLogger(),
		Meter:  meter,
		Reader: reader,
	}
}

// NewLogger 返回一个用于测试的 logger
// 输出到开发环境格式，适合本地调试
func NewLogger() clog.Logger {
	logger, err := clog.New(clog.NewDevDefaultConfig())
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewMeter 返回一个真实的 Meter 以及挂在其上的 ManualReader
func NewMeter(t *testing.T) (metrics.Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	meter, err := metrics.New(metrics.NewDevDefaultConfig("test"), metrics.WithReader(reader))
	if err != nil {
		t.Fatalf("failed to create meter: %v", err)
	}
	t.Cleanup(func() {
		_ = meter.Shutdown(context.Background())
	})
	return meter, reader
}

// NewFeatures 返回一个使用内存存储的特性服务，metrics 为实例级开关
func NewFeatures(t *testing.T, metrics bool) feature.Service {
	t.Helper()
	svc, err := feature.New(context.Background(), &feature.Config{Metrics: metrics})
	if err != nil {
		t.Fatalf("failed to create feature service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

// NewContext 返回一个带有超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)
// 用于生成唯一的 Key 前缀，避免测试间数据冲突
func NewID() string {
	return uuid.New().String()[0:8]
}
