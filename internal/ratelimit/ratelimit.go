// Package ratelimit implements fixed-window request limits keyed by an
// arbitrary scope (API key id, client IP).
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Remaining is how many more requests fit in the current window.
func (d Decision) Remaining() int64 {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}

type Limiter interface {
	Allow(ctx context.Context, scope string) (Decision, error)
}
