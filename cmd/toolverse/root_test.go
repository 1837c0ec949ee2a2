package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jonwraymond/toolverse/config"
	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/prompt"
)

// stubGenerator answers by operation and counts calls.
type stubGenerator struct {
	mu    sync.Mutex
	calls map[string]int
}

func (g *stubGenerator) Generate(_ context.Context, _ string, opts generate.Options) (generate.Response, error) {
	g.mu.Lock()
	g.calls[opts.Op]++
	g.mu.Unlock()

	switch prompt.Op(opts.Op) {
	case prompt.OpFindTools:
		return generate.Response{
			Text:       `{"tools":[{"id":"figma","name":"Figma","tagline":"Design together."}]}`,
			References: []generate.Reference{{URI: "https://figma.com", Title: "Figma"}},
		}, nil
	case prompt.OpToolDetails:
		return generate.Response{Text: `{"description":"Figma is a collaborative design tool.","keyFeatures":["Multiplayer"],` +
			`"useCases":["UI design"],"pricingModel":"Freemium","pros":["Fast"],"cons":["Online only"],"competitors":["Sketch"]}`}, nil
	case prompt.OpCompare:
		return generate.Response{Text: `{"summary":{"tool1_wins":"a","tool2_wins":"b"},"featureComparison":{"tool1":["x"],"tool2":["y"]},` +
			`"useCaseComparison":{"tool1":["x"],"tool2":["y"]},"pricingComparison":{"tool1_pricing":"p","tool2_pricing":"q"},"recommendation":"r"}`}, nil
	case prompt.OpNewsDiscovery:
		return generate.Response{Text: "report", References: []generate.Reference{{URI: "https://example.com/a"}}}, nil
	case prompt.OpNewsStructuring:
		return generate.Response{Text: `[{"title":"T","summary":"S","source":"Src","publishDate":"August 27, 2025","url":"https://example.com/a"}]`}, nil
	}
	return generate.Response{}, errors.New("unexpected op " + opts.Op)
}

func (g *stubGenerator) count(op prompt.Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[string(op)]
}

// setup points the CLI at a temporary store and a stub generator.
func setup(t *testing.T, extra string) *stubGenerator {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "toolverse.toml")
	body := "[store]\npath = " + quote(filepath.Join(dir, "cache.db")) + "\n" + extra
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOOLVERSE_LOG_LEVEL", "error")

	gen := &stubGenerator{calls: map[string]int{}}
	prev := newGenerator
	newGenerator = func(context.Context, config.Config) (generate.Generator, error) { return gen, nil }
	t.Cleanup(func() { newGenerator = prev })

	flagConfig = path
	return gen
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagJSON = false
	flagNewsRefresh = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", flagConfig))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	setup(t, "")
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "toolverse dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestFindCommand(t *testing.T) {
	gen := setup(t, "")

	out, err := run(t, "find", "design", "tools")
	if err != nil {
		t.Fatalf("find error = %v", err)
	}
	if !strings.Contains(out, "Figma") || !strings.Contains(out, "https://figma.com") {
		t.Errorf("find output = %q", out)
	}

	out, err = run(t, "find", "design", "tools", "--json")
	if err != nil {
		t.Fatalf("find --json error = %v", err)
	}
	var res domain.SearchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(res.Tools) != 1 || res.Tools[0].ID != "figma" {
		t.Errorf("tools = %+v", res.Tools)
	}
	if got := gen.count(prompt.OpFindTools); got != 1 {
		t.Errorf("generator calls = %d, want 1 (second run served from the store)", got)
	}
}

func TestDetailsCommand(t *testing.T) {
	setup(t, "")
	out, err := run(t, "details", "Figma")
	if err != nil {
		t.Fatalf("details error = %v", err)
	}
	for _, want := range []string{"collaborative design tool", "Pricing: Freemium", "Competitors:", "  - Sketch"} {
		if !strings.Contains(out, want) {
			t.Errorf("details output missing %q:\n%s", want, out)
		}
	}
}

func TestCompareCommand_OrderIndependent(t *testing.T) {
	gen := setup(t, "")

	var first, second domain.ToolComparison
	for i, args := range [][]string{{"compare", "Sketch", "Figma"}, {"compare", "Figma", "Sketch"}} {
		out, err := run(t, append(args, "--json")...)
		if err != nil {
			t.Fatalf("compare error = %v", err)
		}
		dst := &first
		if i == 1 {
			dst = &second
		}
		if err := json.Unmarshal([]byte(out), dst); err != nil {
			t.Fatalf("decoding %q: %v", out, err)
		}
	}
	if first.Tool1 != "Figma" || second.Tool1 != "Figma" {
		t.Errorf("Tool1 = %q and %q, want Figma both times", first.Tool1, second.Tool1)
	}
	if got := gen.count(prompt.OpCompare); got != 1 {
		t.Errorf("generator calls = %d, want 1", got)
	}

	if _, err := run(t, "compare", "Figma"); err == nil {
		t.Error("compare with one argument should fail")
	}
}

func TestNewsCommand_Refresh(t *testing.T) {
	gen := setup(t, "")

	for _, args := range [][]string{{"news"}, {"news"}, {"news", "--refresh"}} {
		out, err := run(t, args...)
		if err != nil {
			t.Fatalf("%v error = %v", args, err)
		}
		if !strings.Contains(out, "T\n  Src | August 27, 2025") {
			t.Errorf("%v output = %q", args, out)
		}
	}
	if got := gen.count(prompt.OpNewsDiscovery); got != 2 {
		t.Errorf("discovery calls = %d, want 2", got)
	}
}

func TestConfigCommand_MasksSecrets(t *testing.T) {
	setup(t, "\n[auth]\njwt_secret = \"hunter2-hunter2\"\n")
	t.Setenv("TOOLVERSE_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	out, err := run(t, "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Errorf("config output leaks the secret:\n%s", out)
	}
	if !strings.Contains(out, "********") {
		t.Errorf("config output should show a mask:\n%s", out)
	}
}

func TestConfigCommand_InvalidFile(t *testing.T) {
	setup(t, "\n[nonsense]\nkey = 1\n")
	if _, err := run(t, "config"); err == nil {
		t.Fatal("unknown sections should be rejected")
	}
}

func TestPurgeCommand(t *testing.T) {
	setup(t, "")
	out, err := run(t, "purge")
	if err != nil {
		t.Fatalf("purge error = %v", err)
	}
	if !strings.Contains(out, "Nothing to purge.") {
		t.Errorf("purge output = %q", out)
	}
}

func TestNewServer_Routes(t *testing.T) {
	tests := []struct {
		name        string
		extra       string
		signup      int
		wantMetrics int
	}{
		{"directory only", "", http.StatusNotFound, http.StatusNotFound},
		{
			name:        "accounts and metrics",
			extra:       "\n[auth]\njwt_secret = \"0123456789abcdef0123456789abcdef\"\n\n[telemetry]\nmetrics_exporter = \"prometheus\"\n",
			signup:      http.StatusCreated,
			wantMetrics: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TOOLVERSE_JWT_SECRET", "")
			t.Setenv("JWT_SECRET", "")
			t.Setenv("TOOLVERSE_METRICS_EXPORTER", "")
			setup(t, tt.extra)

			a, err := openApp(context.Background())
			if err != nil {
				t.Fatalf("openApp() error = %v", err)
			}
			t.Cleanup(func() { _ = a.Close(context.Background()) })

			srv, err := newServer(a)
			if err != nil {
				t.Fatalf("newServer() error = %v", err)
			}
			h := srv.Handler()

			get := func(target string) int {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
				return rec.Code
			}
			if code := get("/healthz"); code != http.StatusOK {
				t.Errorf("/healthz = %d", code)
			}
			if code := get("/health/store"); code != http.StatusOK {
				t.Errorf("/health/store = %d", code)
			}
			if code := get("/metrics"); code != tt.wantMetrics {
				t.Errorf("/metrics = %d, want %d", code, tt.wantMetrics)
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
				strings.NewReader(`{"email":"ada@example.com","password":"correct horse","name":"Ada"}`))
			req.Header.Set("Content-Type", "application/json")
			h.ServeHTTP(rec, req)
			if rec.Code != tt.signup {
				t.Errorf("signup = %d, want %d: %s", rec.Code, tt.signup, rec.Body.String())
			}
		})
	}
}
