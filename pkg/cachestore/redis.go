package cachestore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campsignal/campsignal/pkg/logger"
)

// RedisStore is a Store backed by Redis. Counters are atomic across
// processes, which makes it the required backend for multi-instance
// deployments.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
	log       *slog.Logger
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisStoreLogger sets the logger used for degraded-operation warnings.
func WithRedisStoreLogger(log *slog.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		s.log = log
	}
}

// NewRedisStore creates a Redis-backed cache store. All keys are prefixed
// with the namespace.
func NewRedisStore(client redis.UniversalClient, cfg Config, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		namespace: cfg.Namespace,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k string) string {
	return s.namespace + ":" + k
}

// degrade logs a backend failure at Warn level. Context cancellation is not
// a backend failure and is logged at Debug to keep shutdown quiet.
func (s *RedisStore) degrade(ctx context.Context, op, key string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		level = slog.LevelDebug
	}
	s.log.LogAttrs(ctx, level, "cache backend unavailable, degrading to miss",
		slog.String("op", op),
		logger.CacheKey(key),
		logger.Error(err),
	)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.degrade(ctx, "get", key, err)
		}
		return nil, false
	}
	return value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		s.degrade(ctx, "set", key, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		s.degrade(ctx, "delete", key, err)
	}
}

func (s *RedisStore) Exists(ctx context.Context, key string) bool {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		s.degrade(ctx, "exists", key, err)
		return false
	}
	return n > 0
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) []string {
	prefix := s.namespace + ":"

	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		s.degrade(ctx, "keys", pattern, err)
		return nil
	}
	return keys
}

func (s *RedisStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, bool) {
	nsKey := s.key(key)

	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(ctx, nsKey, delta)
	if ttl > 0 {
		// NX keeps the expiry set by the increment that created the counter.
		pipe.ExpireNX(ctx, nsKey, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.degrade(ctx, "increment", key, err)
		return 0, false
	}
	return incr.Val(), true
}

func (s *RedisStore) GetOrCompute(ctx context.Context, key string, ttl time.Duration, supplier func(ctx context.Context) ([]byte, error)) ([]byte, error) {
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

var _ Store = (*RedisStore)(nil)
