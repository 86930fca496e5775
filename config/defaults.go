package config

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/ceyewan/routemetrics/xerrors"
)

// WithDefaults 以结构体（按 mapstructure 标签）作为默认值
//
// 每个字段都会注册为一个 key，环境变量因此能覆盖文件中没有出现的字段：
//
//	config.WithDefaults(server.DefaultConfig())
//	// ROUTEMETRICS_SERVER_ADDR=:9999 -> server.addr
func WithDefaults(v any) Option {
	return func(c *Config) {
		values, err := flattenStruct(v)
		if err != nil {
			c.defaultsErr = err
			return
		}
		if c.Defaults == nil {
			c.Defaults = make(map[string]any, len(values))
		}
		for k, val := range values {
			c.Defaults[k] = val
		}
	}
}

// flattenStruct 将结构体转换为以 "." 连接的扁平 key
func flattenStruct(v any) (map[string]any, error) {
	var nested map[string]any
	if err := mapstructure.Decode(v, &nested); err != nil {
		return nil, xerrors.Wrap(xerrors.Combine(ErrValidationFailed, err), "decode defaults")
	}
	out := make(map[string]any)
	flattenInto(out, "", nested)
	return out, nil
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			flattenInto(out, key, sub)
			continue
		}
		out[key] = v
	}
}
