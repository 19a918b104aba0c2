// Package ratelimiter implements a per-key rate limiter: a single boolean
// CheckRateLimit capability throttling expensive user actions such as
// response regeneration. The algorithm is a token bucket per key via
// golang.org/x/time/rate.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config tunes the per-key token bucket. Zero values fall back to
// conservative defaults.
type Config struct {
	RequestsPerMinute float64
	Burst             int
	// IdleEviction bounds how long an untouched key's bucket is kept before
	// CheckRateLimit forgets it, so keys that stop appearing (session ended)
	// don't accumulate forever.
	IdleEviction time.Duration
	Clock        func() time.Time
}

func (c Config) withDefaults() Config {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 5
	}
	if c.Burst <= 0 {
		c.Burst = 2
	}
	if c.IdleEviction <= 0 {
		c.IdleEviction = time.Hour
	}
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	return c
}

type bucket struct {
	limiter    *rate.Limiter
	lastSeenAt time.Time
}

// Limiter is a per-key token bucket rate limiter. Safe for concurrent use.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*bucket
}

func New(cfg Config) *Limiter {
	return &Limiter{cfg: cfg.withDefaults(), buckets: make(map[string]*bucket)}
}

// CheckRateLimit reports whether key may proceed right now, consuming one
// token from its bucket if so.
func (l *Limiter) CheckRateLimit(ctx context.Context, key string) (bool, error) {
	now := l.cfg.Clock()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerMinute/60), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeenAt = now
	l.evictIdleLocked(now)
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1), nil
}

// evictIdleLocked must be called with mu held.
func (l *Limiter) evictIdleLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeenAt) > l.cfg.IdleEviction {
			delete(l.buckets, key)
		}
	}
}
