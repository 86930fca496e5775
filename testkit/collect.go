package testkit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Collect 从 reader 读取一次全部数据点
func Collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// FindMetric 按名称查找指标
func FindMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// CounterValue 返回带有给定标签的计数器值，找不到时返回 false
func CounterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	m, ok := FindMetric(Collect(t, reader), name)
	if !ok {
		return 0, false
	}
	sum, ok := m.Data.(metricdata.Sum[float64])
	if !ok {
		t.Fatalf("metric %s is %T, not a float64 sum", name, m.Data)
	}
	for _, dp := range sum.DataPoints {
		if matchAttributes(dp.Attributes, labels) {
			return dp.Value, true
		}
	}
	return 0, false
}

// HistogramPoint 返回带有给定标签的直方图数据点，找不到时返回 false
func HistogramPoint(t *testing.T, reader *sdkmetric.ManualReader, name string, labels map[string]string) (metricdata.HistogramDataPoint[float64], bool) {
	t.Helper()
	m, ok := FindMetric(Collect(t, reader), name)
	if !ok {
		return metricdata.HistogramDataPoint[float64]{}, false
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("metric %s is %T, not a float64 histogram", name, m.Data)
	}
	for _, dp := range hist.DataPoints {
		if matchAttributes(dp.Attributes, labels) {
			return dp, true
		}
	}
	return metricdata.HistogramDataPoint[float64]{}, false
}

func matchAttributes(set attribute.Set, labels map[string]string) bool {
	if set.Len() != len(labels) {
		return false
	}
	for k, v := range labels {
		got, ok := set.Value(attribute.Key(k))
		if !ok || got.AsString() != v {
			return false
		}
	}
	return true
}

// Attributes 返回指标所有数据点的标签集合
func Attributes(m metricdata.Metrics) []attribute.Set {
	var out []attribute.Set
	switch data := m.Data.(type) {
	case metricdata.Sum[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, dp.Attributes)
		}
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, dp.Attributes)
		}
	case metricdata.Gauge[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, dp.Attributes)
		}
	case metricdata.Gauge[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, dp.Attributes)
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			out = append(out, dp.Attributes)
		}
	case metricdata.Histogram[int64]:
		for _, dp := range data.DataPoints {
			out = append(out, dp.Attributes)
		}
	}
	return out
}
