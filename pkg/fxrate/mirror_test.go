package fxrate

import (
	"context"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRateStore struct {
	data map[string]string
	ttl  time.Duration
}

func (m *memRateStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memRateStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = value.(string)
	m.ttl = ttl
	return nil
}

func (m *memRateStore) FXRateKey(base, quote string) string {
	return "aasta:fx:" + strings.ToLower(base) + ":" + strings.ToLower(quote)
}

func TestRedisMirrorRoundTrip(t *testing.T) {
	store := &memRateStore{data: map[string]string{}}
	mirror := NewRedisMirror(store, "INR", "USD", 15*time.Minute)

	_, ok, err := mirror.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, mirror.Store(context.Background(), Rate{Value: 0.012, FetchedAt: at}))
	assert.Equal(t, 15*time.Minute, store.ttl)
	assert.Contains(t, store.data, "aasta:fx:inr:usd")

	got, ok, err := mirror.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.012, got.Value)
	assert.True(t, got.FetchedAt.Equal(at))
}

func TestRedisMirrorRejectsCorruptPayload(t *testing.T) {
	store := &memRateStore{data: map[string]string{"aasta:fx:inr:usd": "not-json"}}
	_, _, err := NewRedisMirror(store, "INR", "USD", time.Minute).Load(context.Background())
	assert.Error(t, err)
}
