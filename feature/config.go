package feature

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/routemetrics/xerrors"
)

// 支持的存储后端
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config 特性开关配置
//
//	features:
//	  metrics: false
//	  store: redis
//	  refresh_interval: 5s
//	  redis:
//	    addr: "127.0.0.1:6379"
//	    prefix: "routemetrics"
type Config struct {
	// Metrics 实例级指标开关，对应 --enable-metrics
	Metrics bool `mapstructure:"metrics"`

	// Store 运行时开关的存储后端：memory | redis
	Store string `mapstructure:"store"`

	// RefreshInterval 从 Store 刷新运行时开关的周期，<= 0 表示不刷新
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	// CacheTTL Store 读取结果的缓存时间，并发刷新在 TTL 内合并为一次读取
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 存储配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Prefix 键前缀，特性值存储在 <prefix>:features
	Prefix string `mapstructure:"prefix"`

	// Timeout 单次读写超时
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxFailures 连续失败多少次后熔断
	MaxFailures uint32 `mapstructure:"max_failures"`

	// OpenTimeout 熔断后多久进入半开状态
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// NewDefaultConfig 默认配置：内存存储，不启用指标
func NewDefaultConfig() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Second
	}
	c.Redis.setDefaults()
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return xerrors.Wrap(xerrors.ErrInvalidInput, "features.redis.addr is required for redis store")
		}
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown feature store %q", c.Store)
	}
	return nil
}

func (c *RedisConfig) setDefaults() {
	if c.Prefix == "" {
		c.Prefix = "routemetrics"
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 10 * time.Second
	}
}

// ClientOptions 转换为 go-redis 客户端选项
func (c *RedisConfig) ClientOptions() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	}
}
