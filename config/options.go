package config

import "github.com/ceyewan/routemetrics/clog"

// Option 配置选项模式
type Option func(*Config)

// WithConfigName 设置配置文件名称（不带扩展名）
func WithConfigName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithConfigPaths 设置配置文件搜索路径（覆盖默认值）
func WithConfigPaths(paths ...string) Option {
	return func(c *Config) {
		c.Paths = paths
	}
}

// WithConfigType 设置配置文件类型 (yaml, json, etc.)
func WithConfigType(typ string) Option {
	return func(c *Config) {
		c.FileType = typ
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.EnvPrefix = prefix
	}
}

// WithDefault 设置单个 key 的默认值
func WithDefault(key string, value any) Option {
	return func(c *Config) {
		if c.Defaults == nil {
			c.Defaults = make(map[string]any)
		}
		c.Defaults[key] = value
	}
}

// WithLogger 注入日志记录器，组件会自动添加 "config" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger.WithNamespace("config")
		}
	}
}
