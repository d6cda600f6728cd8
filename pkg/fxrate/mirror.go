package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aasta/aasta-backend/pkg/redis"
)

// RedisMirror stores the last fetched rate under a shared key.
type RedisMirror struct {
	store redis.RateStore
	key   string
	ttl   time.Duration
}

func NewRedisMirror(store redis.RateStore, base, quote string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{store: store, key: store.FXRateKey(base, quote), ttl: ttl}
}

func (m *RedisMirror) Load(ctx context.Context) (Rate, bool, error) {
	raw, err := m.store.Get(ctx, m.key)
	if redis.IsMiss(err) {
		return Rate{}, false, nil
	}
	if err != nil {
		return Rate{}, false, fmt.Errorf("load fx mirror: %w", err)
	}
	var rate Rate
	if err := json.Unmarshal([]byte(raw), &rate); err != nil {
		return Rate{}, false, fmt.Errorf("decode fx mirror: %w", err)
	}
	return rate, true, nil
}

func (m *RedisMirror) Store(ctx context.Context, rate Rate) error {
	payload, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("encode fx mirror: %w", err)
	}
	return m.store.Set(ctx, m.key, string(payload), m.ttl)
}
