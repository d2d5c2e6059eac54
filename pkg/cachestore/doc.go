// Package cachestore provides the ephemeral key/value store shared by the
// notification center and the connection registry: TTL'd values, existence
// checks, glob key enumeration, and counters.
//
// # Fail-open contract
//
// The cache is best-effort state in front of the durable store. A backend
// failure never propagates past this package: reads degrade to misses,
// writes to no-ops, and the incident is logged. Callers therefore need no
// cache error handling, but they must never treat cached state as
// authoritative.
//
// # Backends
//
// MemoryStore serves development, tests, and single-instance deployments.
// RedisStore serves shared deployments and is the only backend whose
// counters are atomic across processes.
//
// # Cache-aside without single-flight
//
// GetOrCompute deliberately has no single-flight lock: concurrent misses may
// invoke the supplier redundantly. Suppliers here are cheap count queries,
// so duplicate computation is cheaper than cross-process coordination.
package cachestore
