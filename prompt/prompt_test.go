package prompt

import (
	"strings"
	"testing"

	"github.com/jonwraymond/toolverse/domain"
)

func TestToolDetails(t *testing.T) {
	p := ToolDetails("Figma")

	for _, want := range []string{
		`"Figma"`,
		domain.NotFoundSentinel,
		"Do NOT invent",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Count(p, `"Figma"`) != 2 {
		t.Errorf("expected the name to appear twice, got %d", strings.Count(p, `"Figma"`))
	}
}

func TestToolDetails_EmbedsLiteralInput(t *testing.T) {
	name := `Qxz "zy" <notarealtool>`
	p := ToolDetails(name)
	if !strings.Contains(p, `"`+name+`"`) {
		t.Errorf("name must be embedded verbatim, got:\n%s", p)
	}
}

func TestFindTools(t *testing.T) {
	p := FindTools("design tools")
	for _, want := range []string{`"design tools"`, DirectoryName, "up to 8", "ONLY a single, valid JSON"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCompare_PreservesOrder(t *testing.T) {
	p := Compare("Cursor", "Windsurf")
	if strings.Index(p, `"Cursor"`) > strings.Index(p, `"Windsurf"`) {
		t.Error("first tool should be named first")
	}
	if !strings.Contains(p, `"tool1" always refers to "Cursor"`) {
		t.Errorf("prompt should bind tool1 to the first name:\n%s", p)
	}
}

func TestNewsDiscovery(t *testing.T) {
	p := NewsDiscovery()
	if !strings.Contains(p, "top 5") || !strings.Contains(p, "last 7 days") {
		t.Errorf("unexpected discovery prompt:\n%s", p)
	}
}

func TestNewsStructuring(t *testing.T) {
	urls := []string{"https://www.theverge.com/a", "https://techcrunch.com/b"}
	p := NewsStructuring("  Story one.\nStory two.  ", urls)

	for _, u := range urls {
		if !strings.Contains(p, `"`+u+`"`) {
			t.Errorf("URL %q missing from list", u)
		}
	}
	if !strings.Contains(p, "---\nStory one.\nStory two.\n---") {
		t.Errorf("report should be trimmed and fenced:\n%s", p)
	}
	if !strings.Contains(NewsStructuring("x", nil), "[]") {
		t.Error("nil URL list should render as an empty JSON array")
	}
}

func TestBuilders_Deterministic(t *testing.T) {
	if FindTools("q") != FindTools("q") || ToolDetails("x") != ToolDetails("x") {
		t.Error("builders must be deterministic")
	}
	if NewsStructuring("r", []string{"u"}) != NewsStructuring("r", []string{"u"}) {
		t.Error("NewsStructuring must be deterministic")
	}
}

func TestTemplates_CoverEveryOp(t *testing.T) {
	for _, op := range []Op{OpFindTools, OpToolDetails, OpCompare, OpNewsDiscovery, OpNewsStructuring} {
		if templates[op] == "" {
			t.Errorf("no template for %s", op)
		}
	}
}

func TestNewsStructuring_URLsNotEscaped(t *testing.T) {
	u := "https://example.com/story?id=1&ref=<feed>"
	if p := NewsStructuring("r", []string{u}); !strings.Contains(p, u) {
		t.Errorf("URL must appear verbatim:\n%s", p)
	}
}
