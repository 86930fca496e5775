package feature

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/routemetrics/xerrors"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreLoadSave(t *testing.T) {
	mr, client := newMiniRedis(t)
	store, err := NewRedisStore(client, &RedisConfig{Prefix: "test"}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// 键不存在时返回零值
	f, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, f.Metrics)

	require.NoError(t, store.Save(ctx, Features{Metrics: true}))
	f, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, f.Metrics)

	raw, err := mr.Get("test:features")
	require.NoError(t, err)
	var decoded Features
	require.NoError(t, msgpack.Unmarshal([]byte(raw), &decoded))
	assert.True(t, decoded.Metrics)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, client := newMiniRedis(t)
	store, err := NewRedisStore(client, nil, nil)
	require.NoError(t, err)

	require.NoError(t, mr.Set("routemetrics:features", "\xc1"))
	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStoreBreakerOpens(t *testing.T) {
	mr, client := newMiniRedis(t)
	store, err := NewRedisStore(client, &RedisConfig{MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	require.NoError(t, err)
	mr.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := store.Load(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, xerrors.ErrUnavailable)
	}

	// 熔断后快速失败
	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrUnavailable)

	err = store.Save(ctx, Features{Metrics: true})
	assert.ErrorIs(t, err, xerrors.ErrUnavailable)
}

func TestNewRedisStoreNilClient(t *testing.T) {
	_, err := NewRedisStore(nil, nil, nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

// TestServiceWithRedis 两个副本通过 Redis 共享运行时开关
func TestServiceWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := func() *Config {
		return &Config{
			Store:    StoreRedis,
			CacheTTL: time.Millisecond,
			Redis:    RedisConfig{Addr: mr.Addr()},
		}
	}

	a := newTestService(t, cfg())
	b := newTestService(t, cfg())

	_, err := a.Update(context.Background(), Patch{Metrics: boolPtr(true)})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return b.Refresh(context.Background()) == nil && b.CheckMetrics() == nil
	}, time.Second, 5*time.Millisecond)
}
