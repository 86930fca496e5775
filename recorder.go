package routemetrics

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/xerrors"
)

const (
	MetricRequestsTotal       = "http_requests_total"
	MetricResponseTimeSeconds = "http_response_time_seconds"
)

// Recorder 记录一次请求：计数并返回已启动的计时器
type Recorder interface {
	Start(ctx context.Context, method, path string) *metrics.Timer
}

// RecorderConfig 指标名与直方图桶
type RecorderConfig struct {
	RequestsTotalName       string
	ResponseTimeSecondsName string
	Buckets                 []float64
}

// DefaultRecorderConfig 默认配置，桶边界与 Prometheus 客户端默认值一致
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		RequestsTotalName:       MetricRequestsTotal,
		ResponseTimeSecondsName: MetricResponseTimeSeconds,
		Buckets:                 prometheus.DefBuckets,
	}
}

// RequestMetrics 基于 metrics.Meter 的 Recorder
type RequestMetrics struct {
	requests metrics.Counter
	duration metrics.Histogram
}

// NewRequestMetrics 在 m 上注册请求计数器与响应时间直方图
func NewRequestMetrics(m metrics.Meter, cfg *RecorderConfig) (*RequestMetrics, error) {
	if m == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "meter is nil")
	}
	if cfg == nil {
		cfg = DefaultRecorderConfig()
	}

	requestsName := strings.TrimSpace(cfg.RequestsTotalName)
	if requestsName == "" {
		requestsName = MetricRequestsTotal
	}
	durationName := strings.TrimSpace(cfg.ResponseTimeSecondsName)
	if durationName == "" {
		durationName = MetricResponseTimeSeconds
	}

	requests, err := m.Counter(requestsName, "HTTP requests")
	if err != nil {
		return nil, xerrors.Wrap(err, "create request counter")
	}

	histogramOpts := []metrics.MetricOption{metrics.WithUnit("s")}
	if len(cfg.Buckets) > 0 {
		histogramOpts = append(histogramOpts, metrics.WithBuckets(cfg.Buckets))
	}
	duration, err := m.Histogram(durationName, "HTTP response times", histogramOpts...)
	if err != nil {
		return nil, xerrors.Wrap(err, "create response time histogram")
	}

	return &RequestMetrics{requests: requests, duration: duration}, nil
}

// Start 计数加一后开始计时
func (m *RequestMetrics) Start(ctx context.Context, method, path string) *metrics.Timer {
	labels := []metrics.Label{
		metrics.L(metrics.LabelMethod, method),
		metrics.L(metrics.LabelPath, path),
	}
	m.requests.Inc(ctx, labels...)
	return metrics.NewTimer(m.duration, labels...)
}
