package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasta/aasta-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	client := &Client{store: mem}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "payments:ip:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.EqualValues(t, i+1, count)
	}
	assert.Equal(t, []string{"aasta:rate_limit:payments:ip:10.0.0.1"}, mem.expired, "expiry set once on the first hit")
}

func TestFixedWindowRestoresLostTTL(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	client := &Client{store: mem}
	k := client.RateLimitKey("login:ip:1.2.3.4")
	mem.counters[k] = 5

	allowed, _, err := client.FixedWindowAllow(ctx, "login:ip:1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, []string{k}, mem.expired)
	assert.Equal(t, time.Minute, mem.ttls[k])
}

func TestFixedWindowSurfacesStoreErrors(t *testing.T) {
	mem := newMemStore()
	mem.incrErr = fmt.Errorf("connection refused")
	client := &Client{store: mem}

	_, _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Minute)
	assert.Error(t, err)
}

func TestSetGetAndMiss(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMemStore()}

	k := client.FXRateKey("INR", "USD")
	_, err := client.Get(ctx, k)
	assert.True(t, IsMiss(err))

	require.NoError(t, client.Set(ctx, k, "0.012", time.Hour))
	got, err := client.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, "0.012", got)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	_, _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Second)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestKeys(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "aasta:rate_limit:verify:10.0.0.1", client.RateLimitKey("verify:10.0.0.1"))
	assert.Equal(t, "aasta:fx:inr:usd", client.FXRateKey("INR", "USD"))
	assert.Equal(t, "aasta:rate_limit", client.RateLimitKey(" "))
}

func TestOptions(t *testing.T) {
	_, err := options(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := options(config.RedisConfig{URL: "redis://:secret@cache:6380/3", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "localhost:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

type memStore struct {
	data     map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
	expired  []string
	incrErr  error
}

func newMemStore() *memStore {
	return &memStore{
		data:     map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (m *memStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.incrErr != nil {
		return redis.NewIntResult(0, m.incrErr)
	}
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expired = append(m.expired, key)
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

// TTL mirrors Redis: -1 for a key without expiry.
func (m *memStore) TTL(_ context.Context, key string) *redis.DurationCmd {
	ttl, ok := m.ttls[key]
	if !ok {
		ttl = -1
	}
	return redis.NewDurationResult(ttl, nil)
}
