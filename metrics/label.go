package metrics

// Label 指标标签，为指标添加维度信息
//
// 标签值应保持低基数：方法名、路由模板可以作为标签，原始 URL、请求 ID 不可以。
type Label struct {
	Key   string
	Value string
}

// L 便捷构造函数
//
//	counter.Inc(ctx, metrics.L("method", "GET"), metrics.L("path", "/tasks/{task_id}"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
