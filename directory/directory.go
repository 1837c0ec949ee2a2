package directory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/observe"
)

// Config wires a Service. Store and Generator are required.
type Config struct {
	// Store is the durable cache. A *cache.Tiered is used as is; any other
	// Cache is wrapped in one.
	Store cache.Cache

	// Generator produces answers on a miss, usually a *generate.Client.
	Generator generate.Generator

	// Keyer builds cache keys. Default: cache.DefaultKeyer
	Keyer cache.Keyer

	// Policies sets TTL and freshness per operation.
	// Default: cache.DefaultPolicies()
	Policies *cache.Policies

	// Middleware records spans, metrics and completion logs.
	// Default: a no-op middleware logging through Logger
	Middleware *observe.Middleware

	// Logger receives swallowed cache errors. Default: the middleware's logger
	Logger observe.Logger

	// Clock is the time source for freshness and entry timestamps.
	// Default: time.Now
	Clock func() time.Time

	// DisableSingleFlight lets concurrent misses for one key each generate.
	DisableSingleFlight bool
}

// Service implements the retrieval operations.
type Service struct {
	store    *cache.Tiered
	gen      generate.Generator
	keyer    cache.Keyer
	policies cache.Policies
	mw       *observe.Middleware
	logger   observe.Logger
	now      func() time.Time

	flights *singleflight.Group
	writes  *sync.WaitGroup
	pending *pendingWrites
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Generator == nil {
		return nil, ErrNilGenerator
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NewNopMiddleware(cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Middleware.Logger()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	policies := cache.DefaultPolicies()
	if cfg.Policies != nil {
		policies = *cfg.Policies
	}

	store, ok := cfg.Store.(*cache.Tiered)
	if !ok {
		var err error
		store, err = cache.NewTiered(cfg.Store, cache.WithLogger(cfg.Logger), cache.WithClock(cfg.Clock))
		if err != nil {
			return nil, err
		}
	}

	s := &Service{
		store:    store,
		gen:      cfg.Generator,
		keyer:    cfg.Keyer,
		policies: policies,
		mw:       cfg.Middleware,
		logger:   cfg.Logger,
		now:      cfg.Clock,
		writes:   &sync.WaitGroup{},
		pending:  newPendingWrites(),
	}
	if !cfg.DisableSingleFlight {
		s.flights = &singleflight.Group{}
	}
	return s, nil
}

// WithSession returns a view of s that reads fast before the durable store
// and writes to both. Views share in-flight generations and pending writes.
func (s *Service) WithSession(fast cache.Cache) *Service {
	cp := *s
	cp.store = s.store.WithFast(fast)
	return &cp
}

// Wait blocks until every pending cache write has finished.
func (s *Service) Wait() {
	s.writes.Wait()
}

func (s *Service) meta(op, subject, version string) observe.OpMeta {
	return observe.OpMeta{
		Op:            op,
		Subject:       subject,
		SchemaVersion: version,
		Session:       s.store.HasFast(),
	}
}

// run executes fn inside the telemetry middleware.
func run[T any](ctx context.Context, s *Service, meta observe.OpMeta, fn func(context.Context) (T, error)) (T, error) {
	v, err := s.mw.Wrap(func(ctx context.Context, _ observe.OpMeta) (any, error) {
		return fn(ctx)
	})(ctx, meta)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// flight collapses concurrent calls for key. The shared call keeps the
// leader's context values but not its cancellation; a caller whose context
// ends stops waiting without stopping the call.
func flight[T any](ctx context.Context, s *Service, key string, fn func(context.Context) (T, error)) (T, error) {
	if s.flights == nil {
		return fn(ctx)
	}

	ch := s.flights.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			var zero T
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// lookup reads key into dst, preferring an entry whose store write is still
// in flight. Unreadable and expired entries are misses.
func (s *Service) lookup(ctx context.Context, op, key string, dst any) (cache.Entry, bool) {
	data, ok := s.pending.get(key)
	if !ok {
		data, ok = s.store.Get(ctx, key)
	}
	if !ok {
		s.mw.RecordCache(ctx, op, false)
		return cache.Entry{}, false
	}

	entry, err := cache.DecodeEntry(data)
	if err == nil {
		err = entry.Decode(dst)
	}
	if err != nil {
		s.logger.Warn(ctx, "discarding unreadable cache entry",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		s.mw.RecordCache(ctx, op, false)
		return cache.Entry{}, false
	}
	if entry.Expired(s.now()) {
		s.mw.RecordCache(ctx, op, false)
		return cache.Entry{}, false
	}

	s.mw.RecordCache(ctx, op, true)
	return entry, true
}

// save writes payload under key in the background. The entry is readable
// through lookup before save returns.
func (s *Service) save(ctx context.Context, key string, payload any, p cache.Policy) {
	if !p.ShouldCache() {
		return
	}
	ttl := p.EffectiveTTL(0)
	data, err := cache.NewEntry(key, payload, ttl, s.now())
	if err != nil {
		s.logger.Error(ctx, "encoding cache entry failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return
	}

	ctx = context.WithoutCancel(ctx)
	seq := s.pending.put(key, data)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		defer s.pending.done(key, seq)
		if err := s.store.Set(ctx, key, data, ttl); err != nil {
			s.logger.Warn(ctx, "cache write failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}()
}

// callModel calls the generator and classifies any failure.
func (s *Service) callModel(ctx context.Context, prompt string, opts generate.Options) (generate.Response, error) {
	resp, err := s.gen.Generate(ctx, prompt, opts)
	if err != nil {
		return generate.Response{}, generate.Classify(opts.Op, err)
	}
	return resp, nil
}
