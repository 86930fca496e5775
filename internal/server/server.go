// Package server 组装 routemetrics 的 HTTP/gRPC 服务：路由、中间件链与生命周期。
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/routemetrics"
	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/trace"
	"github.com/ceyewan/routemetrics/xerrors"
)

// Server HTTP 服务
type Server struct {
	cfg      *Config
	logger   clog.Logger
	engine   *gin.Engine
	srv      *http.Server
	tasks    *TaskQueue
	features feature.Service
}

// New 创建服务，features 不能为 nil
//
// 中间件顺序：Recovery -> RequestID -> Trace -> 特性注入 -> 路由指标 -> 路由
func New(cfg *Config, features feature.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.setDefaults()
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

	if o.tasks == nil {
		tasks, err := NewTaskQueue(o.logger, o.meter, 0)
		if err != nil {
			return nil, err
		}
		o.tasks = tasks
	}

	recorder, err := routemetrics.NewRequestMetrics(o.meter, routemetrics.DefaultRecorderConfig())
	if err != nil {
		return nil, xerrors.Wrap(err, "create request metrics")
	}

	if o.release {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		RequestID(),
		trace.GinMiddleware(cfg.Trace.ServiceName),
		feature.GinMiddleware(features),
		routemetrics.GinMiddleware(recorder,
			routemetrics.WithPolicy(o.policy),
			routemetrics.WithLogger(o.logger),
		),
	)

	h := &handlers{
		logger:   o.logger,
		meter:    o.meter,
		features: features,
		tasks:    o.tasks,
		assets:   o.assets,
	}
	h.register(engine)

	return &Server{
		cfg:      cfg,
		logger:   o.logger,
		engine:   engine,
		tasks:    o.tasks,
		features: features,
		srv: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           engine,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		},
	}, nil
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Tasks 返回任务队列
func (s *Server) Tasks() *TaskQueue {
	return s.tasks
}

// Run 监听 cfg.Server.Addr 直到 ctx 结束，随后在 ShutdownTimeout 内优雅关闭
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return xerrors.Wrapf(err, "listen %s", s.srv.Addr)
	}
	return s.Serve(ctx, lis)
}

// Serve 在 lis 上提供服务
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", clog.String("addr", lis.Addr().String()))
		if err := s.srv.Serve(lis); err != nil && !xerrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return xerrors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return xerrors.Wrap(err, "shutdown http server")
	}
	return nil
}
