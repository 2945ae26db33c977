package api

import (
	"sync"

	"gameshelf/internal/config"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// rateLimiter keeps one token bucket per API key (or per remote host for
// unauthenticated callers). Buckets are created lazily and never expire.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	cfg     *config.APIConfig
}

func newRateLimiter(cfg *config.APIConfig) *rateLimiter {
	return &rateLimiter{
		buckets: make(map[string]*rate.Limiter),
		cfg:     cfg,
	}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.buckets[key]; ok {
		return lim
	}

	burst := l.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.RateLimit.RPS), burst)
	l.buckets[key] = lim
	return lim
}
