package metrics

// Config 指标系统的配置
//
// 典型配置示例（YAML）：
//
//	metrics:
//	  enabled: true
//	  service_name: "routemetrics"
//	  version: "v0.3.0"
//	  path: "/metrics"
//	  enable_runtime: true
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter，所有操作都是空操作
	Enabled bool `mapstructure:"enabled"`

	// ServiceName 作为 OpenTelemetry Resource 的 service.name 属性
	ServiceName string `mapstructure:"service_name"`

	// Version 作为 OpenTelemetry Resource 的 service.version 属性
	Version string `mapstructure:"version"`

	// Path Prometheus 采集路径，由 HTTP 服务挂载 Meter.Handler()
	Path string `mapstructure:"path"`

	// Namespace 指标名前缀，例如 "meilisearch" 得到 meilisearch_http_requests_total
	Namespace string `mapstructure:"namespace"`

	// EnableRuntime 是否采集 Go runtime 指标（GC、goroutine、内存）
	EnableRuntime bool `mapstructure:"enable_runtime"`
}

// NewDevDefaultConfig 开发环境默认配置
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
		Path:        "/metrics",
	}
}

// NewProdDefaultConfig 生产环境默认配置，额外开启 runtime 指标
func NewProdDefaultConfig(serviceName, version string) *Config {
	return &Config{
		Enabled:       true,
		ServiceName:   serviceName,
		Version:       version,
		Path:          "/metrics",
		EnableRuntime: true,
	}
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "routemetrics"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}
