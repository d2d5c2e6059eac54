package cachestore

import (
	"context"
	"encoding/json"
	"time"
)

// Store is an ephemeral key/value store with TTL support.
//
// Every operation is fail-open: a backend error is logged by the
// implementation and surfaces to the caller as a miss or no-op, never as an
// error. Availability is prioritized over strict cache consistency, so
// callers must treat the cache as advisory and keep the durable store
// authoritative.
//
// All keys are namespaced by a deployment tag to prevent cross-environment
// collisions; callers work with bare keys.
type Store interface {
	// Get returns the value for key, or ok=false on miss, expiry, or
	// backend failure.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key, overwriting any previous value.
	// A ttl of zero means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string)

	// Exists reports whether key is present and not expired.
	Exists(ctx context.Context, key string) bool

	// Keys returns all live keys matching the glob pattern, without the
	// namespace prefix. Used to invalidate whole key families.
	Keys(ctx context.Context, pattern string) []string

	// Increment adds delta to the counter at key and returns the new value.
	// When the counter is created, ttl (if non-zero) is applied; later
	// increments leave the expiry untouched. ok=false signals a backend
	// failure, in which case the returned value is meaningless.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, bool)

	// GetOrCompute returns the cached value for key or, on miss, invokes
	// supplier, stores the result with ttl, and returns it. There is no
	// single-flight guard: concurrent misses may invoke supplier more than
	// once. The only error returned is the supplier's.
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, supplier func(ctx context.Context) ([]byte, error)) ([]byte, error)
}

// GetJSON reads key and unmarshals it into T. A malformed cached value is
// treated as a miss, consistent with the fail-open contract.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var v T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// SetJSON marshals v and stores it under key. Marshal failures drop the
// write silently; the durable store remains authoritative.
func SetJSON[T any](ctx context.Context, s Store, key string, v T, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.Set(ctx, key, raw, ttl)
}
