package cache

import (
	"time"

	"github.com/jonwraymond/toolverse/observe"
)

// Option configures a store.
type Option func(*options)

type options struct {
	now        func() time.Time
	logger     observe.Logger
	maxEntries int
}

func applyOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger that receives swallowed store errors.
func WithLogger(logger observe.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxEntries bounds an in-memory store. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}
