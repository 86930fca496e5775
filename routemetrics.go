// Package routemetrics 为每个请求记录路由级别的 Prometheus 指标。
//
// 拦截器安装在整个处理链之前，对每个请求：
//  1. 从请求 context 取出 feature.Service，不存在时 panic（装配错误，应在启动时暴露）
//  2. 指标特性未启用时直接转发，不做任何指标操作
//  3. 启用时解析路由模板，经 Policy 归一化为低基数的 path 标签
//  4. 有标签时 http_requests_total{method,path} 加一，并开始 http_response_time_seconds 计时
//  5. 转发给 next，等待结果；无论成功失败，计时器只停止一次
//  6. 原样返回 next 的结果
//
// 传输层适配见 GinMiddleware、HTTPMiddleware、ChiMiddleware 与 UnaryServerInterceptor。
package routemetrics

import (
	"context"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/xerrors"
)

// Request 拦截器需要的请求视图
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Routes() RouteMatcher
}

// RouteMatcher 将请求路径解析为注册时的路由模板，例如 /tasks/42 -> /tasks/{task_id}
type RouteMatcher interface {
	MatchPattern(path string) (string, bool)
}

// RouteMatcherFunc 函数适配器
type RouteMatcherFunc func(path string) (string, bool)

func (f RouteMatcherFunc) MatchPattern(path string) (string, bool) {
	return f(path)
}

// Handler 处理一个请求并产生结果
type Handler[Req Request, Resp any] interface {
	Handle(req Req) (Resp, error)
}

// HandlerFunc 函数适配器
type HandlerFunc[Req Request, Resp any] func(req Req) (Resp, error)

func (f HandlerFunc[Req, Resp]) Handle(req Req) (Resp, error) {
	return f(req)
}

// Interceptor 包装 next，为每个请求记录指标，本身也是 Handler
//
// Interceptor 不持有请求级状态，可被任意多个 goroutine 并发调用。
type Interceptor[Req Request, Resp any] struct {
	next     Handler[Req, Resp]
	recorder Recorder
	policy   *Policy
	logger   clog.Logger
}

// New 创建拦截器，recorder 为 nil 时只转发
func New[Req Request, Resp any](next Handler[Req, Resp], recorder Recorder, opts ...Option) *Interceptor[Req, Resp] {
	o := applyOptions(opts)
	return &Interceptor[Req, Resp]{
		next:     next,
		recorder: recorder,
		policy:   o.policy,
		logger:   o.logger,
	}
}

// Handle 记录指标并转发请求
func (i *Interceptor[Req, Resp]) Handle(req Req) (Resp, error) {
	ctx := req.Context()

	svc, ok := feature.FromContext(ctx)
	if !ok {
		err := xerrors.Wrapf(ErrStateMissing, "%s %s", req.Method(), req.Path())
		i.logger.ErrorContext(ctx, "feature service is not installed ahead of route metrics", clog.Error(err))
		panic(err)
	}

	if i.recorder != nil && svc.CheckMetrics() == nil {
		if label, ok := i.label(req); ok {
			timer := i.recorder.Start(ctx, req.Method(), label)
			defer timer.ObserveDuration(ctx)
		}
	}

	return i.next.Handle(req)
}

// label 解析路由模板并按 Policy 归一化
func (i *Interceptor[Req, Resp]) label(req Req) (string, bool) {
	routes := req.Routes()
	if routes == nil {
		return "", false
	}
	pattern, ok := routes.MatchPattern(req.Path())
	if !ok {
		return "", false
	}
	return i.policy.Label(pattern)
}
