package feature

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/config"
	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/xerrors"
)

const (
	// ConfigKeyMetrics 实例级指标开关的配置 key
	ConfigKeyMetrics = "features.metrics"

	// MetricFeatureEnabled 特性生效状态，1 为启用
	MetricFeatureEnabled = "experimental_feature_enabled"

	memoKeyPrefix = "features:"
)

type service struct {
	instance atomic.Pointer[Features]
	runtime  atomic.Pointer[Features]

	store    Store
	memo     *otter.Cache[string, Features]
	interval time.Duration
	closer   func() error

	// 串行化 Update，避免两个 PATCH 互相覆盖
	mu sync.Mutex
	// version 每次 Update 加一；Refresh 只在加载期间版本未变时才写入快照
	version uint64

	logger clog.Logger
	gauge  metrics.Gauge
}

// New 创建特性开关服务
//
// 创建时会从 Store 加载一次运行时开关，失败则返回错误。
func New(ctx context.Context, cfg *Config, opts ...Option) (Service, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	s := &service{
		store:    o.store,
		interval: cfg.RefreshInterval,
		logger:   o.logger,
	}

	if s.store == nil {
		store, closer, err := newStore(cfg, o.logger)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.closer = closer
	}

	memo, err := otter.New(&otter.Options[string, Features]{
		MaximumSize:      1,
		ExpiryCalculator: otter.ExpiryWriting[string, Features](cfg.CacheTTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build feature cache")
	}
	s.memo = memo

	if o.meter != nil {
		gauge, err := o.meter.Gauge(MetricFeatureEnabled, "Whether an experimental feature is enabled (1) or not (0)")
		if err != nil {
			return nil, err
		}
		s.gauge = gauge
	}

	s.instance.Store(&Features{Metrics: cfg.Metrics})
	s.runtime.Store(&Features{})
	if err := s.Refresh(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.logger.Info("feature service initialized",
		clog.String("store", cfg.Store),
		clog.Bool("instance_metrics", cfg.Metrics),
		clog.Bool("runtime_metrics", s.Runtime().Metrics))
	return s, nil
}

// newStore 按配置创建 Store，返回的 closer 用于释放连接
func newStore(cfg *Config, logger clog.Logger) (Store, func() error, error) {
	switch cfg.Store {
	case StoreRedis:
		client := redis.NewClient(cfg.Redis.ClientOptions())
		store, err := NewRedisStore(client, &cfg.Redis, logger)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return NewMemoryStore(), nil, nil
	}
}

func (s *service) CheckMetrics() error {
	if s.instance.Load().Metrics || s.runtime.Load().Metrics {
		return nil
	}
	return ErrFeatureNotEnabled
}

func (s *service) Instance() Features {
	return *s.instance.Load()
}

func (s *service) Runtime() Features {
	return *s.runtime.Load()
}

func (s *service) SetInstance(f Features) {
	old := s.instance.Swap(&f)
	if *old != f {
		s.logger.Info("instance features changed",
			clog.Bool("from", old.Metrics),
			clog.Bool("to", f.Metrics))
	}
	s.report(context.Background())
}

func (s *service) Update(ctx context.Context, patch Patch) (Features, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.Runtime())
	if err := s.store.Save(ctx, next); err != nil {
		return Features{}, xerrors.Wrap(err, "failed to persist runtime features")
	}
	s.version++
	s.runtime.Store(&next)
	s.report(ctx)

	s.logger.InfoContext(ctx, "runtime features updated", clog.Bool("metrics", next.Metrics))
	return next, nil
}

func (s *service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	// 缓存 key 带版本号，Update 之前发起的加载结果不会被之后的 Refresh 复用
	key := memoKeyPrefix + strconv.FormatUint(version, 10)
	f, err := s.memo.Get(ctx, key, otter.LoaderFunc[string, Features](
		func(ctx context.Context, _ string) (Features, error) {
			return s.store.Load(ctx)
		}))
	if err != nil {
		return xerrors.Wrap(err, "failed to load runtime features")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return nil
	}
	s.runtime.Store(&f)
	s.report(ctx)
	return nil
}

func (s *service) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.WarnContext(ctx, "failed to refresh runtime features", clog.Error(err))
			}
		}
	}
}

func (s *service) WatchConfig(ctx context.Context, loader config.Loader) error {
	if loader == nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "config loader is nil")
	}
	ch, err := loader.Watch(ctx, ConfigKeyMetrics)
	if err != nil {
		return err
	}

	for event := range ch {
		enabled, err := cast.ToBoolE(event.Value)
		if err != nil {
			s.logger.Warn("ignoring invalid features.metrics value",
				clog.Any("value", event.Value), clog.Error(err))
			continue
		}
		next := s.Instance()
		next.Metrics = enabled
		s.SetInstance(next)
	}
	return nil
}

// Close 释放 Store 持有的连接
func (s *service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *service) report(ctx context.Context) {
	if s.gauge == nil {
		return
	}
	var v float64
	if s.CheckMetrics() == nil {
		v = 1
	}
	s.gauge.Set(ctx, v, metrics.L("feature", "metrics"))
}
