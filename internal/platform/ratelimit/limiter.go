package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	throttledRate = 1.0
	minRate       = 0.05
)

// Limiter is a set of token buckets keyed by upstream name. Keys without an
// explicit rate share the default rate, each with its own bucket.
type Limiter struct {
	mu           sync.RWMutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter builds a limiter. requestsPerSecond <= 0 disables limiting for
// keys without an explicit rate.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  toLimit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until a request for key may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// SetRate sets a dedicated rate for key, replacing any existing bucket.
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[key] = rate.NewLimiter(toLimit(requestsPerSecond), burst)
}

// SlowDown lowers the rate for key to at most requestsPerSecond. It never
// raises a rate. Used to honour robots.txt crawl delays.
func (l *Limiter) SlowDown(key string, requestsPerSecond float64) {
	if requestsPerSecond <= 0 {
		return
	}
	limiter := l.get(key)
	if limiter.Limit() > rate.Limit(requestsPerSecond) {
		limiter.SetLimit(rate.Limit(requestsPerSecond))
	}
}

// Throttle halves the rate for key after the upstream pushed back, and
// caps it at one request per retryAfter when a hint was given. An
// unlimited key drops to throttledRate. The rate never goes below minRate.
func (l *Limiter) Throttle(key string, retryAfter time.Duration) float64 {
	current := l.Rate(key)
	next := throttledRate
	if current != rate.Inf {
		next = float64(current) / 2
	}
	if retryAfter > 0 {
		next = min(next, 1/retryAfter.Seconds())
	}
	next = max(next, minRate)
	l.SlowDown(key, next)
	return float64(l.Rate(key))
}

// Rate returns the current rate for key.
func (l *Limiter) Rate(key string) rate.Limit {
	return l.get(key).Limit()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter
	return limiter
}

func toLimit(requestsPerSecond float64) rate.Limit {
	if requestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestsPerSecond)
}
