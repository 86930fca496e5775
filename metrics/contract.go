package metrics

// 常见的标签
const (
	LabelService = "service"
	LabelMethod  = "method"
	LabelPath    = "path"
)

// UnknownRoute 未命中任何路由
const UnknownRoute = "unknown"
