// Package health reports whether the service's dependencies are usable.
//
// Three checkers cover the service: StoreChecker pings the durable cache,
// CircuitChecker reads the generation client's circuit breaker and
// MemoryChecker watches heap usage. An Aggregator runs them together under
// one deadline and folds the results into a Report.
//
// Status semantics:
//
//	Healthy   - everything works
//	Degraded  - cached reads work but new generations are being refused
//	Unhealthy - the durable store is unreachable or memory is critical
//
// Register mounts the probes on a gin router:
//
//	/healthz  liveness, always 200
//	/readyz   200 unless a check is unhealthy
//	/health   JSON report with per-check detail
package health
