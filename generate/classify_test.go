package generate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/resilience"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"quota status text", errors.New("Error 429: You exceeded your current quota"), domain.KindQuota},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), domain.KindQuota},
		{"api error 429", genai.APIError{Code: 429, Message: "slow down"}, domain.KindQuota},
		{"local rate limit", resilience.ErrRateLimitExceeded, domain.KindQuota},
		{"invalid key", errors.New("400 INVALID_ARGUMENT: API key not valid. Please pass a valid API key."), domain.KindCredential},
		{"permission denied", errors.New("PERMISSION_DENIED: caller lacks access"), domain.KindCredential},
		{"api error 403", genai.APIError{Code: 403, Message: "forbidden"}, domain.KindCredential},
		{"missing key", ErrMissingAPIKey, domain.KindCredential},
		{"empty response", ErrEmptyResponse, domain.KindMalformed},
		{"validation", fmt.Errorf("decode: %w", domain.ErrValidation), domain.KindMalformed},
		{"circuit open", resilience.ErrCircuitOpen, domain.KindUnavailable},
		{"timeout", resilience.ErrTimeout, domain.KindUnavailable},
		{"deadline", context.DeadlineExceeded, domain.KindUnavailable},
		{"network", errors.New("dial tcp: connection refused"), domain.KindUnavailable},
		{"api error 500", genai.APIError{Code: 500, Message: "internal"}, domain.KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ge := Classify("tool_details", tt.err)
			if ge == nil {
				t.Fatal("Classify() = nil")
			}
			if ge.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", ge.Kind, tt.want)
			}
			if ge.Op != "tool_details" {
				t.Errorf("Op = %q", ge.Op)
			}
			if !errors.Is(ge, domain.ErrGeneration) {
				t.Error("classified error should match ErrGeneration")
			}
			if ge.Err == nil {
				t.Error("classified error should wrap the cause")
			}
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	if Classify("x", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	orig := domain.NewGenerationError(domain.KindMalformed, "news", domain.ErrValidation)
	wrapped := fmt.Errorf("outer: %w", orig)
	if got := Classify("other", wrapped); got != orig {
		t.Errorf("Classify() = %v, want the original GenerationError", got)
	}
}
