// Package redis bootstraps the go-redis client used by the cache store and
// rate limiter. It only handles connection lifecycle: URL parsing, retries,
// and health probes. Key/value semantics live in pkg/cachestore.
package redis
