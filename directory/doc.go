// Package directory is the AI result cache and retrieval service.
//
// A Service answers four operations: FindTools, GetToolDetails (and its
// tagged variant Lookup), CompareTools and GetNews. Each follows the same
// path:
//
//	key -> fast cache -> durable cache -> prompt -> generator -> normalize -> write-through
//
// Only validated results are cached. Negative tool lookups are cached like
// any other result; generation failures never are. Writes are
// fire-and-forget: a failed write is logged and the caller still gets its
// result. Use Wait to drain pending writes on shutdown.
//
// Concurrent misses for the same key are collapsed into one generation.
// The shared generation runs detached from the caller's cancellation so an
// abandoned request still fills the cache for the next one.
//
// A Service is safe for concurrent use. WithSession returns a view whose
// reads go through a per-session fast path first.
package directory
