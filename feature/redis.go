package feature

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/xerrors"
)

// redisStore 以 MessagePack 编码把运行时开关保存在 Redis 中
//
// 所有读写都经过熔断器，Redis 不可用时快速失败并返回 xerrors.ErrUnavailable。
type redisStore struct {
	client  redis.UniversalClient
	key     string
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  clog.Logger
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client redis.UniversalClient, cfg *RedisConfig, logger clog.Logger) (Store, error) {
	if client == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "redis client is nil")
	}
	if cfg == nil {
		cfg = &RedisConfig{}
	}
	cfg.setDefaults()
	if logger == nil {
		logger = clog.Discard()
	}
	logger = logger.WithNamespace("redis")

	s := &redisStore{
		client: client,
		key:    cfg.Prefix + ":features",
		logger: logger,
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    s.key,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("feature store circuit breaker state changed",
				clog.String("key", name),
				clog.String("from", from.String()),
				clog.String("to", to.String()))
		},
	})
	return s, nil
}

func (s *redisStore) Load(ctx context.Context) (Features, error) {
	data, err := s.breaker.Execute(func() ([]byte, error) {
		b, err := s.client.Get(ctx, s.key).Bytes()
		if xerrors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return Features{}, s.wrap(err, "load features")
	}

	var f Features
	if len(data) == 0 {
		return f, nil
	}
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Features{}, xerrors.Wrapf(err, "decode %s", s.key)
	}
	return f, nil
}

func (s *redisStore) Save(ctx context.Context, f Features) error {
	data, err := msgpack.Marshal(f)
	if err != nil {
		return xerrors.Wrap(err, "encode features")
	}
	_, err = s.breaker.Execute(func() ([]byte, error) {
		return nil, s.client.Set(ctx, s.key, data, 0).Err()
	})
	return s.wrap(err, "save features")
}

func (s *redisStore) wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if xerrors.Is(err, gobreaker.ErrOpenState) || xerrors.Is(err, gobreaker.ErrTooManyRequests) {
		return xerrors.Wrapf(xerrors.Join(xerrors.ErrUnavailable, err), "%s: %s", msg, s.key)
	}
	return xerrors.Wrapf(err, "%s: %s", msg, s.key)
}
