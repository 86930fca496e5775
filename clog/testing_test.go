package clog

import "io"

// withWriter 测试专用选项，配合 Output: "buffer" 捕获日志输出
func withWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}
