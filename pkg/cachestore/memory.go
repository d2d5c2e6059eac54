package cachestore

import (
	"context"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process Store implementation. Suitable for
// development, tests, and single-instance deployments. Counters are atomic
// within the process only; a multi-instance deployment needs the Redis
// backend for shared counters.
type MemoryStore struct {
	namespace string
	entries   map[string]memoryEntry
	mu        sync.RWMutex
}

// NewMemoryStore creates an in-memory cache store. Expired entries are
// evicted lazily on access; wire Cleanup into the scheduler to reclaim
// memory for keys that are never touched again.
func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		namespace: namespace,
		entries:   make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) key(k string) string {
	return s.namespace + ":" + k
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[s.key(key)]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if entry.expired(time.Now()) {
		s.Delete(ctx, key)
		return nil, false
	}

	// Copy so callers cannot mutate the stored value.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[s.key(key)] = entry
	s.mu.Unlock()
}

func (s *MemoryStore) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, s.key(key))
	s.mu.Unlock()
}

func (s *MemoryStore) Exists(ctx context.Context, key string) bool {
	_, ok := s.Get(ctx, key)
	return ok
}

func (s *MemoryStore) Keys(ctx context.Context, pattern string) []string {
	now := time.Now()
	prefix := s.namespace + ":"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k, entry := range s.entries {
		if entry.expired(now) {
			continue
		}
		bare := strings.TrimPrefix(k, prefix)
		if matched, err := path.Match(pattern, bare); err == nil && matched {
			keys = append(keys, bare)
		}
	}
	return keys
}

func (s *MemoryStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, bool) {
	nsKey := s.key(key)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[nsKey]
	if ok && entry.expired(now) {
		ok = false
	}

	var current int64
	if ok {
		current, _ = strconv.ParseInt(string(entry.value), 10, 64)
	}
	current += delta

	next := memoryEntry{value: []byte(strconv.FormatInt(current, 10))}
	if ok {
		// Existing counter keeps its expiry.
		next.expiresAt = entry.expiresAt
	} else if ttl > 0 {
		next.expiresAt = now.Add(ttl)
	}
	s.entries[nsKey] = next

	return current, true
}

func (s *MemoryStore) GetOrCompute(ctx context.Context, key string, ttl time.Duration, supplier func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err := supplier(ctx)
	if err != nil {
		return nil, err
	}

	s.Set(ctx, key, value, ttl)
	return value, nil
}

// Cleanup evicts all expired entries. Intended as a scheduler job; the store
// works correctly without it because reads evict lazily.
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, k)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
