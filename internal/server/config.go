package server

import (
	"time"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/config"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/trace"
	"github.com/ceyewan/routemetrics/xerrors"
)

// ServiceName 默认服务名，用于日志命名空间、Trace 资源和指标
const ServiceName = "routemetrics"

// Config 服务整体配置
//
//	server:
//	  addr: ":7700"
//	  grpc_addr: ":7701"
//	  shutdown_timeout: 10s
//	log:
//	  level: info
//	metrics:
//	  enabled: true
//	trace:
//	  enabled: false
//	features:
//	  metrics: false
//	  store: memory
type Config struct {
	Server   HTTPConfig     `mapstructure:"server"`
	Log      clog.Config    `mapstructure:"log"`
	Metrics  metrics.Config `mapstructure:"metrics"`
	Trace    trace.Config   `mapstructure:"trace"`
	Features feature.Config `mapstructure:"features"`
}

// HTTPConfig 监听地址与优雅关闭
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`

	// GRPCAddr 为空时不启动 gRPC 健康检查服务
	GRPCAddr string `mapstructure:"grpc_addr"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// ReadHeaderTimeout 读取请求头超时
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: HTTPConfig{
			Addr:              ":7700",
			ShutdownTimeout:   10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
		Log:      *clog.NewProdDefaultConfig(),
		Metrics:  *metrics.NewDevDefaultConfig(ServiceName),
		Trace:    *trace.DefaultConfig(ServiceName),
		Features: *feature.NewDefaultConfig(),
	}
}

// LoadConfig 从 loader 读取配置，未出现的字段保持 DefaultConfig 的值
func LoadConfig(loader config.Loader) (*Config, error) {
	cfg := DefaultConfig()
	if loader == nil {
		return cfg, nil
	}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, xerrors.Wrap(err, "unmarshal server config")
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":7700"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = ServiceName
	}
	if c.Trace.ServiceName == "" {
		c.Trace.ServiceName = ServiceName
	}
}
