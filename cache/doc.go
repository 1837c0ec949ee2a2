// Package cache stores generated results behind a small get/set/delete
// contract with per-entry TTL.
//
// It provides a durable SQLite-backed store, a session-scoped in-memory fast
// path, a Tiered front that reads fast-then-durable, deterministic versioned
// key builders, and per-operation TTL and freshness policies.
package cache
