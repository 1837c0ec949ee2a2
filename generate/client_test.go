package generate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/resilience"
	"github.com/jonwraymond/toolverse/schema"
)

func TestNewClient_NilGenerator(t *testing.T) {
	if _, err := NewClient(nil, ClientConfig{}, nil); err != ErrNilGenerator {
		t.Fatalf("NewClient(nil) error = %v, want %v", err, ErrNilGenerator)
	}
}

func TestClient_CallShapes(t *testing.T) {
	var got []Options
	gen := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) (Response, error) {
		got = append(got, opts)
		return Response{Text: "ok"}, nil
	})
	c, err := NewClient(gen, ClientConfig{}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Structured(context.Background(), "tool_details", "p", schema.ToolDetail); err != nil {
		t.Fatalf("Structured() error = %v", err)
	}
	if _, err := c.Grounded(context.Background(), "news_discovery", "p"); err != nil {
		t.Fatalf("Grounded() error = %v", err)
	}

	if got[0].Schema != schema.ToolDetail || got[0].Grounding {
		t.Errorf("structured call options = %+v", got[0])
	}
	if got[1].Schema != nil || !got[1].Grounding {
		t.Errorf("grounded call options = %+v", got[1])
	}
}

func TestClient_NeverRetries(t *testing.T) {
	var calls int32
	gen := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) (Response, error) {
		atomic.AddInt32(&calls, 1)
		return Response{}, errors.New("dial tcp: connection reset")
	})
	c, _ := NewClient(gen, ClientConfig{}, nil)

	_, err := c.Generate(context.Background(), "p", Options{Op: "find_tools"})
	var ge *domain.GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %T %v, want *domain.GenerationError", err, err)
	}
	if ge.Kind != domain.KindUnavailable || ge.Op != "find_tools" {
		t.Errorf("GenerationError = %+v", ge)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
}

func TestClient_QuotaStartsLocalBackoff(t *testing.T) {
	var calls int32
	gen := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) (Response, error) {
		atomic.AddInt32(&calls, 1)
		return Response{}, errors.New("429 RESOURCE_EXHAUSTED")
	})
	c, _ := NewClient(gen, ClientConfig{QuotaBackoff: time.Hour, MaxFailures: 100}, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Generate(context.Background(), "p", Options{Op: "news_discovery"})
		var ge *domain.GenerationError
		if !errors.As(err, &ge) || ge.Kind != domain.KindQuota {
			t.Fatalf("call %d: error = %v, want quota", i, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("generator called %d times during backoff, want 1", n)
	}
}

func TestClient_CircuitOpensOnUnavailable(t *testing.T) {
	var calls int32
	gen := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) (Response, error) {
		atomic.AddInt32(&calls, 1)
		return Response{}, errors.New("503 service unavailable")
	})
	c, _ := NewClient(gen, ClientConfig{MaxFailures: 2, ResetTimeout: time.Hour, Burst: 10}, nil)

	for i := 0; i < 3; i++ {
		_, _ = c.Generate(context.Background(), "p", Options{})
	}
	if c.Circuit() != resilience.StateOpen {
		t.Errorf("Circuit() = %v, want open", c.Circuit())
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("generator called %d times, want 2", n)
	}
}

func TestClient_MalformedDoesNotTripCircuit(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) (Response, error) {
		return Response{}, ErrEmptyResponse
	})
	c, _ := NewClient(gen, ClientConfig{MaxFailures: 1, Burst: 10}, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Generate(context.Background(), "p", Options{})
		var ge *domain.GenerationError
		if !errors.As(err, &ge) || ge.Kind != domain.KindMalformed {
			t.Fatalf("error = %v, want malformed", err)
		}
	}
	if c.Circuit() != resilience.StateClosed {
		t.Errorf("Circuit() = %v, want closed", c.Circuit())
	}
}

func TestClient_Timeout(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})
	c, _ := NewClient(gen, ClientConfig{Timeout: 20 * time.Millisecond}, nil)

	_, err := c.Generate(context.Background(), "p", Options{Op: "compare_tools"})
	var ge *domain.GenerationError
	if !errors.As(err, &ge) || ge.Kind != domain.KindUnavailable {
		t.Fatalf("error = %v, want unavailable", err)
	}
}
