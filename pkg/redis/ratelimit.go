package redis

import (
	"context"
	"time"
)

// RateLimiter is the fixed-window surface used by the HTTP middleware.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// FixedWindowAllow counts a hit for scope in the current window and reports
// whether the count is still within limit. The window starts on the first hit.
//
// A counter that is over the limit but carries no TTL (the process died
// between INCR and EXPIRE) gets its expiry restored so the caller is not
// locked out forever.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.store == nil {
		return false, 0, errNotInitialized
	}
	k := c.RateLimitKey(scope)

	count, err := c.store.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if window <= 0 {
		return count <= limit, count, nil
	}

	switch {
	case count == 1:
		if err := c.store.Expire(ctx, k, window).Err(); err != nil {
			return true, count, err
		}
	case count > limit:
		ttl, err := c.store.TTL(ctx, k).Result()
		if err == nil && ttl < 0 {
			err = c.store.Expire(ctx, k, window).Err()
		}
		if err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}
