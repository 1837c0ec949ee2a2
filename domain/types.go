package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// NotFoundSentinel is the description value the generator is instructed to
// emit when it cannot identify a tool. It never leaves the normalizer as data;
// callers receive a NotFoundError instead.
const NotFoundSentinel = "ERROR: Tool not found"

// ToolSummary is a single directory search hit.
type ToolSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
}

// GroundingSource is a web page that informed a generated answer.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// SearchResult is the payload of a directory search.
type SearchResult struct {
	Tools   []ToolSummary     `json:"tools"`
	Sources []GroundingSource `json:"sources"`
}

// ToolDetail is the AI analysis of a single tool.
type ToolDetail struct {
	Description  string   `json:"description"`
	KeyFeatures  []string `json:"keyFeatures"`
	UseCases     []string `json:"useCases"`
	PricingModel string   `json:"pricingModel"`
	Pros         []string `json:"pros"`
	Cons         []string `json:"cons"`
	Competitors  []string `json:"competitors"`
}

// IsNotFound reports whether the record carries the not-found sentinel.
func (d ToolDetail) IsNotFound() bool {
	return strings.TrimSpace(d.Description) == NotFoundSentinel
}

// NotFoundDetail returns the canonical negative record that is cached for an
// unknown tool.
func NotFoundDetail() ToolDetail {
	return ToolDetail{
		Description: NotFoundSentinel,
		KeyFeatures: []string{},
		UseCases:    []string{},
		Pros:        []string{},
		Cons:        []string{},
		Competitors: []string{},
	}
}

// ComparisonSection lists per-tool items side by side.
type ComparisonSection struct {
	Tool1 []string `json:"tool1"`
	Tool2 []string `json:"tool2"`
}

// ComparisonSummary says where each tool wins.
type ComparisonSummary struct {
	Tool1Wins string `json:"tool1_wins"`
	Tool2Wins string `json:"tool2_wins"`
}

// PricingComparison describes each tool's pricing model.
type PricingComparison struct {
	Tool1Pricing string `json:"tool1_pricing"`
	Tool2Pricing string `json:"tool2_pricing"`
}

// ToolComparison is a side-by-side analysis of two tools.
//
// Tool1 and Tool2 always refer to the pair in sorted key order (see
// cache.PairKey), so compare(A,B) and compare(B,A) share one record.
type ToolComparison struct {
	Tool1             string            `json:"tool1,omitempty"`
	Tool2             string            `json:"tool2,omitempty"`
	Summary           ComparisonSummary `json:"summary"`
	FeatureComparison ComparisonSection `json:"featureComparison"`
	UseCaseComparison ComparisonSection `json:"useCaseComparison"`
	PricingComparison PricingComparison `json:"pricingComparison"`
	Recommendation    string            `json:"recommendation"`
}

// NewsArticle is one curated story.
type NewsArticle struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	PublishDate string `json:"publishDate"`
	URL         string `json:"url"`
}

// NewsBatch is the cached "today's batch" of articles. GeneratedAt drives the
// freshness window independently of the store's TTL.
type NewsBatch struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Articles    []NewsArticle     `json:"articles"`
	Sources     []GroundingSource `json:"sources"`
}

// DetailResult is the tagged outcome of a tool lookup: either Found with a
// detail record or NotFound with the queried name.
type DetailResult struct {
	Name   string
	Found  bool
	Detail ToolDetail
}

// Found wraps a detail record.
func Found(name string, d ToolDetail) DetailResult {
	return DetailResult{Name: name, Found: true, Detail: d}
}

// NotFound marks name as unknown.
func NotFound(name string) DetailResult {
	return DetailResult{Name: name}
}

// Err returns a NotFoundError for negative results and nil otherwise.
func (r DetailResult) Err() error {
	if r.Found {
		return nil
	}
	return &NotFoundError{Name: r.Name}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a URL-safe lowercase identifier: runs of anything outside
// [a-z0-9] collapse to a single dash, with no leading or trailing dash.
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// EscapedName is the path-escaped lowercase form of name with whitespace
// collapsed. Unlike Slug it keeps punctuation and non-Latin letters, so it
// is never empty for a non-blank name.
func EscapedName(name string) string {
	return url.PathEscape(strings.Join(strings.Fields(strings.ToLower(name)), " "))
}

var validSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// IsSlug reports whether s is already a well-formed slug.
func IsSlug(s string) bool {
	return validSlug.MatchString(s)
}
