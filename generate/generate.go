package generate

import (
	"context"
	"errors"

	"github.com/jonwraymond/toolverse/schema"
)

// Sentinel errors for generation.
var (
	// ErrEmptyResponse indicates the model returned no text.
	ErrEmptyResponse = errors.New("generate: empty response")

	// ErrMissingAPIKey indicates the adapter was built without credentials.
	ErrMissingAPIKey = errors.New("generate: api key is required")

	// ErrNilGenerator indicates a nil Generator was provided.
	ErrNilGenerator = errors.New("generate: generator is nil")
)

// Reference is a web page the model consulted for a grounded answer.
type Reference struct {
	URI   string
	Title string
}

// Options selects the call shape.
type Options struct {
	// Op labels the call in errors and logs.
	Op string

	// Schema requests structured JSON output of this shape.
	Schema *schema.Descriptor

	// Grounding enables web search and reference extraction.
	Grounding bool
}

// Response is the raw model output.
type Response struct {
	Text       string
	References []Reference
}

// Generator produces text for a prompt.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation and deadlines.
// - Errors: must not retry; failures are returned as-is for classification.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (Response, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (Response, error) {
	return f(ctx, prompt, opts)
}
