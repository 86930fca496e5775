// routemetricsd 启动带路由指标的 HTTP/gRPC 服务。
//
//	routemetricsd --config ./config/routemetrics.yaml --enable-metrics
package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/oklog/run"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/config"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/internal/server"
	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/trace"
	"github.com/ceyewan/routemetrics/xerrors"
)

var version = "dev"

// CLI 命令行参数，优先级高于配置文件
type CLI struct {
	Config        string           `short:"c" help:"Configuration file path" default:"routemetrics.yaml" type:"path"`
	Addr          string           `help:"HTTP listen address, overrides server.addr"`
	GRPCAddr      string           `name:"grpc-addr" help:"gRPC health listen address, overrides server.grpc_addr"`
	EnableMetrics bool             `name:"enable-metrics" help:"Enable the metrics experimental feature for this instance"`
	Version       kong.VersionFlag `name:"version" help:"Show version and exit"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("routemetricsd"),
		kong.Description("Search API server with per-route request metrics"),
		kong.Vars{"version": version},
	)
	kctx.FatalIfErrorf(cli.Run())
}

// Run 加载配置，组装组件并运行直到收到退出信号
func (c *CLI) Run() (err error) {
	ctx := context.Background()

	loader, err := c.loader()
	if err != nil {
		return err
	}
	if err := loader.Load(ctx); err != nil {
		return xerrors.Wrap(err, "load config")
	}
	cfg, err := server.LoadConfig(loader)
	if err != nil {
		return err
	}
	c.override(cfg)

	logger, err := clog.New(&cfg.Log,
		clog.WithNamespace(server.ServiceName),
		clog.WithStandardContext(),
		clog.WithTraceContext(),
	)
	if err != nil {
		return xerrors.Wrap(err, "init logger")
	}
	defer logger.Flush()

	traceShutdown, err := trace.Init(&cfg.Trace)
	if err != nil {
		return xerrors.Wrap(err, "init trace")
	}
	var closers []func() error
	defer func() { err = closeAll(err, closers) }()
	closers = append(closers, func() error { return traceShutdown(context.Background()) })

	cfg.Metrics.Version = version
	meter, err := metrics.New(&cfg.Metrics, metrics.WithLogger(logger))
	if err != nil {
		return xerrors.Wrap(err, "init metrics")
	}
	closers = append(closers, func() error { return meter.Shutdown(context.Background()) })

	features, err := feature.New(ctx, &cfg.Features,
		feature.WithLogger(logger),
		feature.WithMeter(meter),
	)
	if err != nil {
		return xerrors.Wrap(err, "init features")
	}
	closers = append(closers, features.Close)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMeter(meter),
		server.WithReleaseMode(),
	}
	httpServer, err := server.New(cfg, features, opts...)
	if err != nil {
		return err
	}

	var g run.Group
	addContextActor(&g, httpServer.Run)
	addContextActor(&g, httpServer.Tasks().Run)
	addContextActor(&g, features.Run)
	addContextActor(&g, func(ctx context.Context) error {
		return features.WatchConfig(ctx, loader)
	})

	if cfg.Server.GRPCAddr != "" {
		grpcServer, err := server.NewGRPCServer(cfg, features, opts...)
		if err != nil {
			return err
		}
		addContextActor(&g, grpcServer.Run)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	g.Add(func() error {
		<-sigCtx.Done()
		logger.Info("received shutdown signal")
		return nil
	}, func(error) {
		stop()
	})

	logger.Info("routemetrics starting",
		clog.String("version", version),
		clog.String("addr", cfg.Server.Addr),
		clog.Bool("metrics", features.CheckMetrics() == nil),
	)
	return g.Run()
}

// closeAll 逆序关闭组件，并与运行错误合并返回
func closeAll(runErr error, closers []func() error) error {
	errs := []error{runErr}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, xerrors.Wrap(err, "shutdown"))
		}
	}
	return xerrors.Combine(errs...)
}

// addContextActor 以可取消的 ctx 运行 fn，组内任一成员退出时取消
func addContextActor(g *run.Group, fn func(context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	g.Add(func() error {
		return fn(ctx)
	}, func(error) {
		cancel()
	})
}

func (c *CLI) loader() (config.Loader, error) {
	dir, file := filepath.Split(c.Config)
	ext := filepath.Ext(file)
	// 默认值注册全部 key，环境变量才能覆盖配置文件中未出现的字段
	opts := []config.Option{
		config.WithConfigName(strings.TrimSuffix(file, ext)),
		config.WithDefaults(server.DefaultConfig()),
	}
	if dir != "" {
		opts = append(opts, config.WithConfigPaths(dir))
	}
	if ext != "" {
		opts = append(opts, config.WithConfigType(strings.TrimPrefix(ext, ".")))
	}
	return config.New(nil, opts...)
}

func (c *CLI) override(cfg *server.Config) {
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.GRPCAddr != "" {
		cfg.Server.GRPCAddr = c.GRPCAddr
	}
	if c.EnableMetrics {
		cfg.Features.Metrics = true
	}
}
