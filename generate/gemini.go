package generate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jonwraymond/toolverse/schema"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	models *genai.Models
	model  string
}

// NewGemini creates a Gemini adapter.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: creating gemini client: %w", err)
	}
	return &Gemini{models: client.Models, model: cfg.Model}, nil
}

// Generate sends prompt to the model.
//
// With a schema and no grounding the model is constrained to JSON of that
// shape. The API does not accept a response schema together with the search
// tool, so a grounded structured call carries the schema outline in the
// prompt instead.
func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) (Response, error) {
	config := &genai.GenerateContentConfig{}

	switch {
	case opts.Schema != nil && opts.Grounding:
		prompt = withOutline(prompt, opts.Schema)
	case opts.Schema != nil:
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenaiSchema(opts.Schema.Root)
	}
	if opts.Grounding {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return Response{}, err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Response{}, ErrEmptyResponse
	}

	out := Response{Text: text}
	if opts.Grounding {
		out.References = references(resp)
	}
	return out, nil
}

func withOutline(prompt string, d *schema.Descriptor) string {
	return prompt + "\n\nThe JSON must have this shape:\n" + d.Describe()
}

func references(resp *genai.GenerateContentResponse) []Reference {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	refs := make([]Reference, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		refs = append(refs, Reference{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return refs
}

// toGenaiSchema converts a registry field into the API's schema type.
func toGenaiSchema(f *schema.Field) *genai.Schema {
	if f == nil {
		return nil
	}
	s := &genai.Schema{Description: f.Description}

	switch f.Type {
	case schema.TypeString:
		s.Type = genai.TypeString
	case schema.TypeArray:
		s.Type = genai.TypeArray
		s.Items = toGenaiSchema(f.Items)
	case schema.TypeObject:
		s.Type = genai.TypeObject
		s.Properties = make(map[string]*genai.Schema, len(f.Properties))
		for _, p := range f.Properties {
			s.Properties[p.Name] = toGenaiSchema(p)
			s.PropertyOrdering = append(s.PropertyOrdering, p.Name)
		}
		s.Required = f.RequiredNames()
	}
	return s
}

// Ensure Gemini implements Generator
var _ Generator = (*Gemini)(nil)
