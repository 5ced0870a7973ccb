package httpserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry is a per-client limiter and the last time it was used.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterRegistry hands out one token-bucket limiter per client IP.
// Limiters idle for longer than the TTL are evicted on the next sweep.
type LimiterRegistry struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiterRegistry creates a registry allowing requestsPerSecond per client
// with a burst of the same size.
func NewLimiterRegistry(requestsPerSecond int, ttl time.Duration) *LimiterRegistry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LimiterRegistry{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(requestsPerSecond),
		burst:    requestsPerSecond,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow reports whether the client may make a request now.
func (r *LimiterRegistry) Allow(client string) bool {
	return r.get(client).Allow()
}

// get returns the limiter for client, creating it on first use.
func (r *LimiterRegistry) get(client string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > r.ttl {
		r.sweep(now)
	}

	e, ok := r.limiters[client]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[client] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep drops idle limiters. Caller holds r.mu.
func (r *LimiterRegistry) sweep(now time.Time) {
	for client, e := range r.limiters {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.limiters, client)
		}
	}
	r.lastSweep = now
}

// Len returns the number of tracked clients.
func (r *LimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}
