package metrics

import (
	"context"
	"sync/atomic"
	"time"
)

// Timer 记录一段操作的耗时到 Histogram，单位为秒
//
//	timer := metrics.NewTimer(histogram, metrics.L("path", "/tasks"))
//	defer timer.ObserveDuration(ctx)
type Timer struct {
	histogram Histogram
	labels    []Label
	start     time.Time
	observed  atomic.Bool
}

// NewTimer 创建并立即启动计时器
func NewTimer(h Histogram, labels ...Label) *Timer {
	return &Timer{
		histogram: h,
		labels:    labels,
		start:     time.Now(),
	}
}

// ObserveDuration 停止计时并记录耗时
//
// 只有第一次调用会写入 Histogram，之后的调用只返回经过的时间。
func (t *Timer) ObserveDuration(ctx context.Context) time.Duration {
	elapsed := time.Since(t.start)
	if !t.observed.CompareAndSwap(false, true) {
		return elapsed
	}
	if t.histogram != nil {
		t.histogram.Record(ctx, elapsed.Seconds(), t.labels...)
	}
	return elapsed
}

// Observed 是否已经记录过
func (t *Timer) Observed() bool {
	return t.observed.Load()
}
