// Package resilience guards calls to the generative model.
//
// The patterns compose through Executor in a fixed order: rate limiter,
// bulkhead, circuit breaker, timeout. There is deliberately no retry
// pattern; a failed generation surfaces to the caller for classification.
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 2, Burst: 5})),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 4})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5})),
//	    resilience.WithTimeout(60*time.Second),
//	)
//
// The bulkhead is a golang.org/x/sync/semaphore; the limiters are
// golang.org/x/time/rate token buckets.
//
// KeyedRateLimiter applies an independent bucket per client key and backs
// the HTTP layer's per-IP limit.
package resilience
