package redis

import (
	"context"
	"strings"
	"time"
)

const (
	keyNamespace    = "aasta"
	rateLimitPrefix = "rate_limit"
	fxPrefix        = "fx"
)

// RateStore is what the FX mirror needs from Redis.
type RateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FXRateKey(base, quote string) string
}

func (c *Client) RateLimitKey(scope string) string {
	return key(rateLimitPrefix, scope)
}

// FXRateKey is shared by every API instance so one upstream fetch serves all.
func (c *Client) FXRateKey(base, quote string) string {
	return key(fxPrefix, strings.ToLower(base), strings.ToLower(quote))
}

// key joins non-empty parts under the aasta namespace with ':'.
func key(parts ...string) string {
	out := keyNamespace
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out += ":" + p
		}
	}
	return out
}
