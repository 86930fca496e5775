package testkit

import (
	"context"
	"net/http"
	"sync"

	"github.com/ceyewan/routemetrics/metrics"
)

// Sample 一次记录
type Sample struct {
	Value  float64
	Labels []metrics.Label
}

// Label 返回 key 对应的标签值
func (s Sample) Label(key string) (string, bool) {
	for _, l := range s.Labels {
		if l.Key == key {
			return l.Value, true
		}
	}
	return "", false
}

// CaptureMeter 把所有记录保存在内存中的 Meter，用于断言调用次数与标签
type CaptureMeter struct {
	mu         sync.Mutex
	counters   map[string]*CaptureInstrument
	gauges     map[string]*CaptureInstrument
	histograms map[string]*CaptureInstrument
}

// NewCaptureMeter 创建 CaptureMeter
func NewCaptureMeter() *CaptureMeter {
	return &CaptureMeter{
		counters:   make(map[string]*CaptureInstrument),
		gauges:     make(map[string]*CaptureInstrument),
		histograms: make(map[string]*CaptureInstrument),
	}
}

func (m *CaptureMeter) instrument(set map[string]*CaptureInstrument, name string) *CaptureInstrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := set[name]; ok {
		return inst
	}
	inst := &CaptureInstrument{}
	set[name] = inst
	return inst
}

func (m *CaptureMeter) Counter(name string, _ string, _ ...metrics.MetricOption) (metrics.Counter, error) {
	return m.instrument(m.counters, name), nil
}

func (m *CaptureMeter) Gauge(name string, _ string, _ ...metrics.MetricOption) (metrics.Gauge, error) {
	return m.instrument(m.gauges, name), nil
}

func (m *CaptureMeter) Histogram(name string, _ string, _ ...metrics.MetricOption) (metrics.Histogram, error) {
	return m.instrument(m.histograms, name), nil
}

func (m *CaptureMeter) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (m *CaptureMeter) Shutdown(context.Context) error {
	return nil
}

// CounterSamples 返回计数器的所有记录
func (m *CaptureMeter) CounterSamples(name string) []Sample {
	return m.instrument(m.counters, name).Samples()
}

// HistogramSamples 返回直方图的所有记录
func (m *CaptureMeter) HistogramSamples(name string) []Sample {
	return m.instrument(m.histograms, name).Samples()
}

// GaugeSamples 返回仪表盘的所有记录
func (m *CaptureMeter) GaugeSamples(name string) []Sample {
	return m.instrument(m.gauges, name).Samples()
}

// CaptureInstrument 同时实现 Counter、Gauge 与 Histogram
type CaptureInstrument struct {
	mu      sync.Mutex
	samples []Sample
}

func (c *CaptureInstrument) record(val float64, labels []metrics.Label) {
	copied := make([]metrics.Label, len(labels))
	copy(copied, labels)
	c.mu.Lock()
	c.samples = append(c.samples, Sample{Value: val, Labels: copied})
	c.mu.Unlock()
}

func (c *CaptureInstrument) Inc(_ context.Context, labels ...metrics.Label) {
	c.record(1, labels)
}

func (c *CaptureInstrument) Dec(_ context.Context, labels ...metrics.Label) {
	c.record(-1, labels)
}

func (c *CaptureInstrument) Add(_ context.Context, val float64, labels ...metrics.Label) {
	c.record(val, labels)
}

func (c *CaptureInstrument) Set(_ context.Context, val float64, labels ...metrics.Label) {
	c.record(val, labels)
}

func (c *CaptureInstrument) Record(_ context.Context, val float64, labels ...metrics.Label) {
	c.record(val, labels)
}

// Samples 返回记录的副本
func (c *CaptureInstrument) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sample(nil), c.samples...)
}
