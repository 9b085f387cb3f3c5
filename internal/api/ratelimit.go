package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// tenantLimiter allows one event per interval for each key, with a burst
// of one.
type tenantLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

func newTenantLimiter(interval time.Duration) *tenantLimiter {
	return &tenantLimiter{interval: interval, limiters: map[string]*rate.Limiter{}}
}

func (l *tenantLimiter) Allow(key string) bool {
	if l == nil || l.interval <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
