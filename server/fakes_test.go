package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/directory"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/payment"
	"github.com/jonwraymond/toolverse/prompt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	detailJSON = `{"description":"Figma is a collaborative design tool.","keyFeatures":["Multiplayer"],"useCases":["UI design"],` +
		`"pricingModel":"Freemium","pros":["Fast"],"cons":["Online only"],"competitors":["Sketch"]}`
	missingJSON    = `{"description":"ERROR: Tool not found","keyFeatures":[],"useCases":[],"pricingModel":"","pros":[],"cons":[],"competitors":[]}`
	searchJSON     = `{"tools":[{"id":"figma","name":"Figma","tagline":"Design together."}]}`
	comparisonJSON = `{"summary":{"tool1_wins":"a","tool2_wins":"b"},"featureComparison":{"tool1":["x"],"tool2":["y"]},` +
		`"useCaseComparison":{"tool1":["x"],"tool2":["y"]},"pricingComparison":{"tool1_pricing":"p","tool2_pricing":"q"},"recommendation":"r"}`
	newsJSON = `[{"title":"T","summary":"S","source":"Src","publishDate":"August 27, 2025","url":"https://example.com/a"}]`
)

// stubGenerator answers by operation. failures override answers per op.
type stubGenerator struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error
}

func newStubGenerator() *stubGenerator {
	return &stubGenerator{calls: map[string]int{}, failures: map[string]error{}}
}

func (g *stubGenerator) Generate(_ context.Context, p string, opts generate.Options) (generate.Response, error) {
	g.mu.Lock()
	g.calls[opts.Op]++
	err := g.failures[opts.Op]
	g.mu.Unlock()
	if err != nil {
		return generate.Response{}, err
	}

	switch prompt.Op(opts.Op) {
	case prompt.OpFindTools:
		return generate.Response{Text: searchJSON, References: []generate.Reference{{URI: "https://figma.com", Title: "Figma"}}}, nil
	case prompt.OpToolDetails:
		if strings.Contains(p, "Qxzzynotarealtool123") {
			return generate.Response{Text: missingJSON}, nil
		}
		return generate.Response{Text: detailJSON}, nil
	case prompt.OpCompare:
		return generate.Response{Text: comparisonJSON}, nil
	case prompt.OpNewsDiscovery:
		return generate.Response{Text: "report", References: []generate.Reference{{URI: "https://example.com/a"}}}, nil
	case prompt.OpNewsStructuring:
		return generate.Response{Text: newsJSON}, nil
	}
	return generate.Response{}, errors.New("unexpected op " + opts.Op)
}

func (g *stubGenerator) count(op prompt.Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[string(op)]
}

func (g *stubGenerator) fail(op prompt.Op, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[string(op)] = err
}

// stubPayments records calls and answers with a fixed order.
type stubPayments struct {
	mu       sync.Mutex
	created  []string
	verified []string
	err      error
}

func (p *stubPayments) CreateOrder(_ context.Context, amount float64, currency, userID string) (payment.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return payment.Order{}, p.err
	}
	p.created = append(p.created, userID)
	return payment.Order{ID: "order_1", Amount: int64(amount * 100), Currency: currency, UserID: userID, Status: payment.StatusPending}, nil
}

func (p *stubPayments) VerifyPayment(_ context.Context, orderID, paymentID, _ string, userID string) (payment.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return payment.Order{}, p.err
	}
	p.verified = append(p.verified, userID)
	return payment.Order{ID: orderID, PaymentID: paymentID, UserID: userID, Status: payment.StatusCompleted}, nil
}

type testServer struct {
	srv      *Server
	gen      *stubGenerator
	dir      *directory.Service
	accounts *auth.Service
	payments *stubPayments
	sessions *cache.Sessions
}

// recordingLogger keeps messages by level.
type recordingLogger struct {
	mu     sync.Mutex
	levels map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{levels: map[string][]string{}}
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels[level] = append(l.levels[level], msg)
}

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.levels[level]...)
}

func (l *recordingLogger) Info(_ context.Context, msg string, _ ...observe.Field)  { l.log("info", msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...observe.Field)  { l.log("warn", msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...observe.Field) { l.log("error", msg) }
func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...observe.Field) { l.log("debug", msg) }
func (l *recordingLogger) WithOp(observe.OpMeta) observe.Logger                  { return l }

func newTestServer(t *testing.T, mutate ...func(*Config)) *testServer {
	t.Helper()

	gen := newStubGenerator()
	dir, err := directory.New(directory.Config{Store: cache.NewMemoryCache(), Generator: gen})
	if err != nil {
		t.Fatalf("directory.New() error = %v", err)
	}
	t.Cleanup(dir.Wait)

	db, err := cache.OpenDB(filepath.Join(t.TempDir(), "toolverse.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	users, err := auth.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	accounts, err := auth.NewService(auth.Config{
		Store:      users,
		Tokens:     auth.NewJWTAuthenticator(auth.JWTConfig{Issuer: "toolverse"}, auth.NewStaticKeyProvider([]byte("test-secret"))),
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("auth.NewService() error = %v", err)
	}

	ts := &testServer{
		gen:      gen,
		dir:      dir,
		accounts: accounts,
		payments: &stubPayments{},
		sessions: cache.NewSessions(time.Hour, 100),
	}
	cfg := Config{
		Directory: dir,
		Accounts:  accounts,
		Payments:  ts.payments,
		Sessions:  ts.sessions,
		Version:   "test",
	}
	for _, m := range mutate {
		m(&cfg)
	}
	ts.srv, err = New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	ts.dir.Wait()
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}
