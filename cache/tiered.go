package cache

import (
	"context"
	"time"

	"github.com/jonwraymond/toolverse/observe"
)

// DefaultFastTTL bounds copies promoted into a fast path when the durable
// store cannot report an entry's remaining lifetime.
const DefaultFastTTL = time.Hour

// Tiered reads from an optional fast path before the durable store and
// writes through to both.
//
// Contract:
// - Reads never fail; a durable store error is a miss.
// - A durable hit is copied into the fast path with its remaining lifetime.
// - Writes go to the durable store first; a failed durable write still
//   populates the fast path and returns the error for logging.
type Tiered struct {
	durable Cache
	fast    Cache
	logger  observe.Logger
	now     func() time.Time
}

// NewTiered creates a tiered cache over durable with no fast path.
func NewTiered(durable Cache, opts ...Option) (*Tiered, error) {
	if durable == nil {
		return nil, ErrNilCache
	}
	o := applyOptions(opts)
	return &Tiered{durable: durable, logger: o.logger, now: o.now}, nil
}

// WithFast returns a view sharing the durable store but reading through
// fast first. A nil fast returns a view without a fast path.
func (t *Tiered) WithFast(fast Cache) *Tiered {
	cp := *t
	cp.fast = fast
	return &cp
}

// HasFast reports whether a fast path is attached.
func (t *Tiered) HasFast() bool {
	return t.fast != nil
}

// Get reads fast then durable.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if t.fast != nil {
		if v, ok := t.fast.Get(ctx, key); ok {
			return v, true
		}
	}

	var (
		value []byte
		ttl   = DefaultFastTTL
		ok    bool
	)
	if eg, isEG := t.durable.(ExpiryGetter); isEG {
		var exp time.Time
		value, exp, ok = eg.GetWithExpiry(ctx, key)
		if ok {
			ttl = exp.Sub(t.now())
		}
	} else {
		value, ok = t.durable.Get(ctx, key)
	}
	if !ok {
		return nil, false
	}

	if t.fast != nil && ttl > 0 {
		if err := t.fast.Set(ctx, key, value, ttl); err != nil {
			t.logger.Debug(ctx, "fast path promotion failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		}
	}
	return value, true
}

// Set writes durable then fast.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := t.durable.Set(ctx, key, value, ttl)
	if t.fast != nil {
		if ferr := t.fast.Set(ctx, key, value, ttl); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// Delete removes key from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	if t.fast != nil {
		_ = t.fast.Delete(ctx, key)
	}
	return t.durable.Delete(ctx, key)
}

// Ensure Tiered implements Cache
var _ Cache = (*Tiered)(nil)
