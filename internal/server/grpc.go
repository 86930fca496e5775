package server

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ceyewan/routemetrics"
	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/trace"
	"github.com/ceyewan/routemetrics/xerrors"
)

// GRPCServer gRPC 健康检查服务，与 HTTP 共享同一套指标
type GRPCServer struct {
	addr   string
	logger clog.Logger
	srv    *grpc.Server
	health *health.Server
}

// NewGRPCServer 创建 gRPC 服务
//
// 拦截器顺序与 HTTP 一致：先注入特性，再记录指标。
func NewGRPCServer(cfg *Config, features feature.Service, opts ...Option) (*GRPCServer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if features == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "feature service is nil")
	}

	o := &options{
		logger: clog.Discard(),
		meter:  metrics.Discard(),
		policy: routemetrics.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(o)
	}

	recorder, err := routemetrics.NewRequestMetrics(o.meter, routemetrics.DefaultRecorderConfig())
	if err != nil {
		return nil, xerrors.Wrap(err, "create request metrics")
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(trace.GRPCServerStatsHandler()),
		grpc.ChainUnaryInterceptor(
			feature.UnaryServerInterceptor(features),
			routemetrics.UnaryServerInterceptor(recorder,
				routemetrics.WithPolicy(o.policy),
				routemetrics.WithLogger(o.logger),
			),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &GRPCServer{
		addr:   cfg.Server.GRPCAddr,
		logger: o.logger,
		srv:    srv,
		health: hs,
	}, nil
}

// Run 监听配置的地址直到 ctx 结束
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return xerrors.Wrapf(err, "listen %s", s.addr)
	}
	return s.Serve(ctx, lis)
}

// Serve 在 lis 上提供服务，ctx 结束后先将健康状态置为 NOT_SERVING 再优雅停止
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("grpc server listening", clog.String("addr", lis.Addr().String()))
		errCh <- s.srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return xerrors.Wrap(err, "grpc server")
	case <-ctx.Done():
	}

	s.health.Shutdown()
	s.srv.GracefulStop()
	return nil
}
