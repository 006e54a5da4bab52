package metadata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter paces outbound requests per remote host with a token bucket.
type hostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*hostEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

type hostEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newHostLimiter(rps float64, burst int) *hostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &hostLimiter{
		limiters: make(map[string]*hostEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *hostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || l.limit <= 0 {
		return nil
	}
	return l.get(host).Wait(ctx)
}

func (l *hostLimiter) get(host string) *rate.Limiter {
	now := time.Now()

	l.mu.RLock()
	entry, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok = l.limiters[host]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	l.evictIdle(now)
	entry = &hostEntry{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.limiters[host] = entry
	return entry.limiter
}

// evictIdle drops hosts not seen for idleTTL. Caller holds the write lock.
func (l *hostLimiter) evictIdle(now time.Time) {
	for host, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, host)
		}
	}
}

func (l *hostLimiter) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}
