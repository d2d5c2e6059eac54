package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/campsignal/campsignal/pkg/cachestore"
)

// RateLimiter caps how many events of one name a single user may receive
// inside a rolling window. The counter lives in the cache store so the cap
// holds across registry instances when the Redis backend is used.
//
// The limiter tolerates races by design: counters reset when the window key
// expires, and a cache outage fails open. It protects against event storms,
// not against adversaries.
type RateLimiter struct {
	store  cachestore.Store
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit events per window for each
// (user, event name) pair.
func NewRateLimiter(store cachestore.Store, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window}
}

// Allow reports whether another event may be delivered to the user.
// Events beyond the cap are dropped by the caller, never queued.
func (l *RateLimiter) Allow(ctx context.Context, userID, eventName string) bool {
	key := fmt.Sprintf("ratelimit:%s:%s", userID, eventName)

	count, ok := l.store.Increment(ctx, key, 1, l.window)
	if !ok {
		// Cache backend down: fail open, delivery stays best-effort anyway.
		return true
	}
	return count <= l.limit
}
