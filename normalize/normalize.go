package normalize

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/schema"
)

// Decode extracts JSON from text, validates it against d and decodes it
// into dst.
func Decode(op, text string, d *schema.Descriptor, dst any) error {
	raw := extractJSON(text)
	if raw == "" {
		return malformed(op, fmt.Errorf("no JSON value in response"))
	}

	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return malformed(op, err)
	}
	if err := d.Validate(generic); err != nil {
		return malformed(op, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return malformed(op, err)
	}
	return nil
}

func malformed(op string, err error) error {
	return domain.NewGenerationError(domain.KindMalformed, op, fmt.Errorf("%w: %w", domain.ErrValidation, err))
}

// extractJSON strips markdown fences and any prose around the outermost
// JSON object or array.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	if s == "" || s[0] == '{' || s[0] == '[' {
		return s
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// ToolDetail decodes a detail response for name. The not-found sentinel is
// detected before validation, since a negative answer may leave required
// fields out.
func ToolDetail(op, name, text string) (domain.DetailResult, error) {
	var probe struct {
		Description string `json:"description"`
	}
	raw := extractJSON(text)
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		if strings.TrimSpace(probe.Description) == domain.NotFoundSentinel {
			return domain.NotFound(name), nil
		}
	} else if strings.Contains(text, domain.NotFoundSentinel) {
		return domain.NotFound(name), nil
	}

	var d domain.ToolDetail
	if err := Decode(op, text, schema.ToolDetail, &d); err != nil {
		return domain.DetailResult{}, err
	}
	if d.IsNotFound() {
		return domain.NotFound(name), nil
	}
	return domain.Found(name, d), nil
}

// Sources converts grounding references into sources, de-duplicated by URI
// in first-seen order. A missing title falls back to a later duplicate's
// title, then to the URI's host.
func Sources(refs []generate.Reference) []domain.GroundingSource {
	out := make([]domain.GroundingSource, 0, len(refs))
	index := make(map[string]int, len(refs))

	for _, ref := range refs {
		uri := strings.TrimSpace(ref.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(ref.Title)
		if i, ok := index[uri]; ok {
			if out[i].Title == "" {
				out[i].Title = title
			}
			continue
		}
		index[uri] = len(out)
		out = append(out, domain.GroundingSource{URI: uri, Title: title})
	}

	for i := range out {
		if out[i].Title == "" {
			out[i].Title = host(out[i].URI)
		}
	}
	return out
}

func host(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return uri
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// ToolSummaries trims search hits and drops nameless entries and repeated
// names. Ids that are not valid slugs are re-derived from the name; when the
// slug is empty or already taken (C++ and C# both slug to "c") the escaped
// name is used instead.
func ToolSummaries(in []domain.ToolSummary) []domain.ToolSummary {
	out := make([]domain.ToolSummary, 0, len(in))
	names := make(map[string]bool, len(in))
	ids := make(map[string]bool, len(in))

	for _, t := range in {
		t.Name = strings.TrimSpace(t.Name)
		t.Tagline = strings.TrimSpace(t.Tagline)
		t.ID = strings.TrimSpace(t.ID)
		if t.Name == "" {
			continue
		}
		name := domain.EscapedName(t.Name)
		if names[name] {
			continue
		}
		if !domain.IsSlug(t.ID) || ids[t.ID] {
			t.ID = domain.Slug(t.Name)
		}
		if t.ID == "" || ids[t.ID] {
			t.ID = name
		}
		for n := 2; ids[t.ID]; n++ {
			t.ID = fmt.Sprintf("%s-%d", name, n)
		}
		names[name] = true
		ids[t.ID] = true
		out = append(out, t)
	}
	return out
}
