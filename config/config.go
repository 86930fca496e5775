package config

import (
	"strings"

	"github.com/ceyewan/routemetrics/clog"
)

// DefaultEnvPrefix 环境变量默认前缀，例如 ROUTEMETRICS_SERVER_ADDR
const DefaultEnvPrefix = "ROUTEMETRICS"

// Config 加载器配置
type Config struct {
	Name      string         // 配置文件名称（不含扩展名）
	Paths     []string       // 配置文件搜索路径，默认 [".", "./config"]
	FileType  string         // 配置文件类型 (yaml, json, etc.)
	EnvPrefix string         // 环境变量前缀，默认 ROUTEMETRICS
	Defaults  map[string]any // 默认值，优先级最低

	logger      clog.Logger
	defaultsErr error
}

// validate 设置默认值
func (c *Config) validate() error {
	if c.defaultsErr != nil {
		return c.defaultsErr
	}
	if c.Name == "" {
		c.Name = "config"
	}
	if c.Paths == nil {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = DefaultEnvPrefix
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
	if c.logger == nil {
		c.logger = clog.Discard()
	}
	return nil
}

// New 创建配置加载器，cfg 为 nil 时使用默认配置。
//
// 返回的 Loader 尚未读取任何来源，需要调用 Load。
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, o := range opts {
		o(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newLoader(cfg), nil
}
