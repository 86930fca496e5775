package routemetrics

import (
	"context"

	"google.golang.org/grpc"
)

// MethodGRPC gRPC 请求使用的 method 标签
const MethodGRPC = "GRPC"

type grpcRequest struct {
	ctx        context.Context
	req        any
	fullMethod string
	handler    grpc.UnaryHandler
}

func (r grpcRequest) Context() context.Context { return r.ctx }
func (r grpcRequest) Method() string           { return MethodGRPC }
func (r grpcRequest) Path() string             { return r.fullMethod }

// Routes gRPC 的 FullMethod 本身就是低基数的模板
func (r grpcRequest) Routes() RouteMatcher {
	return RouteMatcherFunc(func(path string) (string, bool) {
		return path, path != ""
	})
}

// UnaryServerInterceptor 返回 gRPC 一元拦截器，需排在 feature.UnaryServerInterceptor 之后
//
//	grpc.NewServer(grpc.ChainUnaryInterceptor(
//	    feature.UnaryServerInterceptor(svc),
//	    routemetrics.UnaryServerInterceptor(recorder),
//	))
func UnaryServerInterceptor(recorder Recorder, opts ...Option) grpc.UnaryServerInterceptor {
	call := HandlerFunc[grpcRequest, any](func(r grpcRequest) (any, error) {
		return r.handler(r.ctx, r.req)
	})
	interceptor := New[grpcRequest, any](call, recorder, opts...)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return interceptor.Handle(grpcRequest{
			ctx:        ctx,
			req:        req,
			fullMethod: info.FullMethod,
			handler:    handler,
		})
	}
}
