// Package fxrate keeps a lazily refreshed currency conversion rate.
package fxrate

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/metrics"
)

const (
	SourceUpstream = "upstream"
	SourceMirror   = "mirror"
	SourceStale    = "stale"
	SourceDefault  = "default"

	DefaultTTL  = 15 * time.Minute
	DefaultRate = 0.012

	refreshKey = "refresh"
)

// Rate is a conversion rate and when it was obtained.
type Rate struct {
	Value     float64   `json:"rate"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"-"`
}

// Fetcher retrieves the current rate from an upstream provider.
type Fetcher interface {
	Fetch(ctx context.Context) (float64, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (float64, error)

func (f FetcherFunc) Fetch(ctx context.Context) (float64, error) { return f(ctx) }

// Mirror shares fetched rates between API instances.
type Mirror interface {
	Load(ctx context.Context) (Rate, bool, error)
	Store(ctx context.Context, rate Rate) error
}

// Cache holds one rate. Reads never fail: a refresh error keeps the last known
// value, or the default rate when nothing was ever fetched.
type Cache struct {
	fetcher     Fetcher
	mirror      Mirror
	ttl         time.Duration
	defaultRate float64
	now         func() time.Time
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics

	mu      sync.RWMutex
	current Rate
	loaded  bool

	group singleflight.Group
}

// Option configures optional cache behavior.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithDefaultRate(rate float64) Option {
	return func(c *Cache) {
		if rate > 0 {
			c.defaultRate = rate
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithMirror(m Mirror) Option {
	return func(c *Cache) {
		c.mirror = m
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Cache) {
		c.logg = l
	}
}

func WithMetrics(m *metrics.PaymentMetrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New builds a cache around fetcher.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:     fetcher,
		ttl:         DefaultTTL,
		defaultRate: DefaultRate,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached rate, refreshing it first when stale.
func (c *Cache) Get(ctx context.Context) Rate {
	if rate, ok := c.fresh(); ok {
		return rate
	}
	if err := c.RefreshIfStale(ctx); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "fx rate refresh failed, serving fallback")
	}
	return c.snapshot()
}

// RefreshIfStale refreshes the rate when the TTL has elapsed. Concurrent
// callers share one upstream call.
func (c *Cache) RefreshIfStale(ctx context.Context) error {
	if _, ok := c.fresh(); ok {
		return nil
	}
	_, err, _ := c.group.Do(refreshKey, func() (any, error) {
		if _, ok := c.fresh(); ok {
			return nil, nil
		}
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Cache) refresh(ctx context.Context) error {
	if c.mirror != nil {
		if rate, ok, err := c.mirror.Load(ctx); err == nil && ok && rate.Value > 0 && c.isFresh(rate.FetchedAt) {
			rate.Source = SourceMirror
			c.set(rate)
			c.metrics.IncFXRefresh(SourceMirror)
			return nil
		}
	}

	if c.fetcher == nil {
		c.metrics.IncFXRefresh(metrics.OutcomeFallback)
		return errors.New("fx fetcher not configured")
	}

	value, err := c.fetcher.Fetch(ctx)
	if err == nil && value <= 0 {
		err = errors.New("upstream returned a non-positive rate")
	}
	if err != nil {
		c.metrics.IncFXRefresh(metrics.OutcomeFallback)
		return err
	}

	rate := Rate{Value: value, FetchedAt: c.now(), Source: SourceUpstream}
	c.set(rate)
	c.metrics.IncFXRefresh(metrics.OutcomeSuccess)

	if c.mirror != nil {
		if err := c.mirror.Store(ctx, rate); err != nil && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "fx rate mirror write failed")
		}
	}
	return nil
}

func (c *Cache) fresh() (Rate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || !c.isFresh(c.current.FetchedAt) {
		return Rate{}, false
	}
	return c.current, true
}

func (c *Cache) isFresh(at time.Time) bool {
	return c.now().Sub(at) < c.ttl
}

func (c *Cache) set(rate Rate) {
	c.mu.Lock()
	c.current = rate
	c.loaded = true
	c.mu.Unlock()
}

func (c *Cache) snapshot() Rate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return Rate{Value: c.defaultRate, Source: SourceDefault}
	}
	rate := c.current
	if !c.isFresh(rate.FetchedAt) {
		rate.Source = SourceStale
	}
	return rate
}
