package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-process fallback used when no redis is
// configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int64
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryLimiter(limit int64, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, scope string) (Decision, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[scope]

	if !ok || now.After(b.windowEnd) {
		rl.sweep(now)
		rl.clients[scope] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		return Decision{Allowed: 1 <= rl.limit, Count: 1, Limit: rl.limit}, nil
	}

	b.count++

	d := Decision{Allowed: b.count <= rl.limit, Count: b.count, Limit: rl.limit}
	if !d.Allowed {
		d.RetryAfter = b.windowEnd.Sub(now)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}

	return d, nil
}

// sweep drops expired buckets so idle scopes do not accumulate.
func (rl *MemoryLimiter) sweep(now time.Time) {
	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}
