package generate

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/resilience"
	"github.com/jonwraymond/toolverse/schema"
)

// ClientConfig configures the guards around a Generator.
type ClientConfig struct {
	// Timeout bounds one call. Default: 60 seconds
	Timeout time.Duration

	// Rate and Burst configure the outbound token bucket.
	// Defaults: 2 per second, burst 5
	Rate  float64
	Burst int

	// MaxConcurrent bounds in-flight calls. Default: 8
	MaxConcurrent int

	// MaxFailures consecutive unavailable or quota failures open the
	// circuit for ResetTimeout. Defaults: 5, 30 seconds
	MaxFailures  int
	ResetTimeout time.Duration

	// QuotaBackoff rejects calls locally for this long after the model
	// reports quota exhaustion. Default: 1 minute
	QuotaBackoff time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Rate <= 0 {
		c.Rate = 2
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.QuotaBackoff <= 0 {
		c.QuotaBackoff = time.Minute
	}
	return c
}

// Client is a guarded Generator. Every error it returns is a
// *domain.GenerationError.
type Client struct {
	gen     Generator
	exec    *resilience.Executor
	limiter *resilience.RateLimiter
	breaker *resilience.CircuitBreaker
	backoff time.Duration
	logger  observe.Logger
}

// NewClient wraps gen with the configured guards.
func NewClient(gen Generator, cfg ClientConfig, logger observe.Logger) (*Client, error) {
	if gen == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	cfg = cfg.withDefaults()

	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:        cfg.Rate,
		Burst:       cfg.Burst,
		WaitOnLimit: true,
		MaxWait:     cfg.Timeout,
	})
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  cfg.MaxFailures,
		ResetTimeout: cfg.ResetTimeout,
		IsFailure:    tripsBreaker,
		OnStateChange: func(from, to resilience.State) {
			logger.Warn(context.Background(), "generation circuit state changed",
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()},
			)
		},
	})

	return &Client{
		gen:     gen,
		limiter: limiter,
		breaker: breaker,
		backoff: cfg.QuotaBackoff,
		logger:  logger,
		exec: resilience.NewExecutor(
			resilience.WithRateLimiter(limiter),
			resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
				MaxConcurrent: cfg.MaxConcurrent,
				MaxWait:       cfg.Timeout,
			})),
			resilience.WithCircuitBreaker(breaker),
			resilience.WithTimeout(cfg.Timeout),
		),
	}, nil
}

// tripsBreaker counts failures that say the model is unreachable or
// throttling us. Caller cancellation and unreadable output do not count.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch kindOf(err) {
	case domain.KindUnavailable, domain.KindQuota:
		return true
	}
	return false
}

// Generate runs one guarded call. It never retries.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (Response, error) {
	var resp Response
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		r, err := c.gen.Generate(ctx, prompt, opts)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err == nil {
		return resp, nil
	}

	ge := Classify(opts.Op, err)
	if ge.Kind == domain.KindQuota && !errors.Is(err, resilience.ErrRateLimitExceeded) {
		c.limiter.Backoff(c.backoff)
	}
	c.logger.Warn(ctx, "generation failed",
		observe.Field{Key: "op", Value: opts.Op},
		observe.Field{Key: "kind", Value: ge.Kind.String()},
		observe.Field{Key: "error", Value: err.Error()},
	)
	return Response{}, ge
}

// Structured requests schema-constrained JSON without grounding.
func (c *Client) Structured(ctx context.Context, op, prompt string, d *schema.Descriptor) (Response, error) {
	return c.Generate(ctx, prompt, Options{Op: op, Schema: d})
}

// Grounded requests free text with web grounding references.
func (c *Client) Grounded(ctx context.Context, op, prompt string) (Response, error) {
	return c.Generate(ctx, prompt, Options{Op: op, Grounding: true})
}

// Circuit returns the breaker state, for health reporting.
func (c *Client) Circuit() resilience.State {
	return c.breaker.State()
}

// Ensure Client implements Generator
var _ Generator = (*Client)(nil)
