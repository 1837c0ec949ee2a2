package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/observe"
)

const (
	figmaDetailJSON = `{
  "description": "Figma is a collaborative interface design tool that runs in the browser.",
  "keyFeatures": ["Real-time collaboration", "Prototyping", "Design systems"],
  "useCases": ["UI design", "Wireframing", "Handoff"],
  "pricingModel": "Freemium with paid tiers",
  "pros": ["Browser based", "Multiplayer editing", "Large plugin ecosystem"],
  "cons": ["Needs a connection", "Large files get slow", "Paid seats add up"],
  "competitors": ["Sketch", "Adobe XD", "Penpot"]
}`

	notFoundJSON = `{"description":"ERROR: Tool not found","keyFeatures":[],"useCases":[],"pricingModel":"","pros":[],"cons":[],"competitors":[]}`

	comparisonJSON = `{
  "summary": {"tool1_wins": "Collaboration", "tool2_wins": "Offline work"},
  "featureComparison": {"tool1": ["Multiplayer"], "tool2": ["Native app"]},
  "useCaseComparison": {"tool1": ["Teams"], "tool2": ["Solo designers"]},
  "pricingComparison": {"tool1_pricing": "Freemium", "tool2_pricing": "Subscription"},
  "recommendation": "Pick Figma for teams."
}`

	searchJSON = "```json\n" + `{"tools":[
  {"id":"figma","name":"Figma","tagline":"Collaborative interface design."},
  {"id":"Adobe XD","name":"Adobe XD","tagline":"Vector UX design."},
  {"id":"penpot","name":"Penpot","tagline":"Open source design."}
]}` + "\n```"

	newsStructuredJSON = `[
  {"title":"Model A ships","summary":"s","source":"The Verge","publishDate":"August 27, 2025","url":"https://www.theverge.com/a"},
  {"title":"Chip B","summary":"s","source":"TechCrunch","publishDate":"August 26, 2025","url":"https://techcrunch.com/b/"},
  {"title":"Invented","summary":"s","source":"Nowhere","publishDate":"August 25, 2025","url":"https://made.up/story"}
]`
)

var (
	searchRefs = []generate.Reference{
		{URI: "https://figma.com", Title: "Figma"},
		{URI: "https://penpot.app"},
		{URI: "https://figma.com", Title: "Figma again"},
	}
	newsRefs = []generate.Reference{
		{URI: "https://www.theverge.com/a", Title: "The Verge"},
		{URI: "https://techcrunch.com/b"},
		{URI: "https://www.theverge.com/a"},
	}
)

// fakeGenerator answers by operation and counts calls. When gate is set,
// every call blocks until it is closed.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   map[string]int
	prompts []string
	gate    chan struct{}
	entered chan struct{}
	fail    map[string]error
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		calls:   make(map[string]int),
		fail:    make(map[string]error),
		entered: make(chan struct{}, 100),
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts generate.Options) (generate.Response, error) {
	f.mu.Lock()
	f.calls[opts.Op]++
	f.prompts = append(f.prompts, prompt)
	gate := f.gate
	failure := f.fail[opts.Op]
	f.mu.Unlock()

	f.entered <- struct{}{}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return generate.Response{}, ctx.Err()
		}
	}
	if failure != nil {
		return generate.Response{}, failure
	}

	switch opts.Op {
	case "find_tools":
		return generate.Response{Text: searchJSON, References: searchRefs}, nil
	case "tool_details":
		if strings.Contains(prompt, "Qxzzynotarealtool123") {
			return generate.Response{Text: notFoundJSON}, nil
		}
		return generate.Response{Text: figmaDetailJSON}, nil
	case "compare_tools":
		return generate.Response{Text: comparisonJSON}, nil
	case "news_discovery":
		return generate.Response{Text: "1. Model A ships...\n2. Chip B...", References: newsRefs}, nil
	case "news_structuring":
		return generate.Response{Text: newsStructuredJSON}, nil
	}
	return generate.Response{}, errors.New("unexpected op " + opts.Op)
}

func (f *fakeGenerator) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGenerator) setFailure(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeClock is a manually advanced, concurrency-safe time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// countingMetrics records cache outcomes per operation.
type countingMetrics struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	ops    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{hits: map[string]int{}, misses: map[string]int{}, ops: map[string]int{}}
}

func (m *countingMetrics) RecordOp(_ context.Context, meta observe.OpMeta, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[meta.Op]++
}

func (m *countingMetrics) RecordCache(_ context.Context, op string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits[op]++
	} else {
		m.misses[op]++
	}
}

// passTracer starts no spans.
type passTracer struct{}

func (passTracer) StartSpan(ctx context.Context, _ observe.OpMeta) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (passTracer) EndSpan(trace.Span, error) {}

// brokenStore misses every read and fails every write.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return cache.ErrUnavailable
}
func (brokenStore) Delete(context.Context, string) error { return cache.ErrUnavailable }

// gatedStore holds every write until open is called.
type gatedStore struct {
	*cache.MemoryCache
	gate chan struct{}
	once sync.Once
}

func newGatedStore() *gatedStore {
	return &gatedStore{MemoryCache: cache.NewMemoryCache(), gate: make(chan struct{})}
}

func (g *gatedStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	<-g.gate
	return g.MemoryCache.Set(ctx, key, data, ttl)
}

func (g *gatedStore) open() { g.once.Do(func() { close(g.gate) }) }

type fixture struct {
	svc     *Service
	gen     *fakeGenerator
	clock   *fakeClock
	store   *cache.MemoryCache
	metrics *countingMetrics
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	f := &fixture{
		gen:     newFakeGenerator(),
		clock:   newFakeClock(),
		metrics: newCountingMetrics(),
	}
	f.store = cache.NewMemoryCache(cache.WithClock(f.clock.Now))

	cfg := Config{
		Store:      f.store,
		Generator:  f.gen,
		Clock:      f.clock.Now,
		Middleware: observe.NewMiddleware(passTracer{}, f.metrics, observe.NopLogger()),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.svc = svc
	t.Cleanup(svc.Wait)
	return f
}
