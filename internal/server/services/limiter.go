package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedKeys bounds the limiter map; once reached, entries idle long
// enough to have refilled are dropped.
const maxTrackedKeys = 10000

type attemptLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newAttemptLimiter(limit rate.Limit, burst int) *attemptLimiter {
	if burst < 1 {
		burst = 1
	}
	return &attemptLimiter{limit: limit, burst: burst, entries: make(map[string]*limiterEntry)}
}

func (l *attemptLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxTrackedKeys {
			l.prune(now)
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// prune drops entries whose bucket is full again; they are
// indistinguishable from a fresh limiter.
func (l *attemptLimiter) prune(now time.Time) {
	refill := time.Duration(float64(l.burst) / float64(l.limit) * float64(time.Second))
	for k, e := range l.entries {
		if now.Sub(e.seen) >= refill {
			delete(l.entries, k)
		}
	}
}
