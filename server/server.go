package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/directory"
	"github.com/jonwraymond/toolverse/health"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/payment"
	"github.com/jonwraymond/toolverse/resilience"
)

// ErrNilDirectory is returned by New without a directory service.
var ErrNilDirectory = errors.New("server: nil directory")

// Accounts is the credential service used by the auth endpoints.
type Accounts interface {
	Signup(ctx context.Context, email, password, name string) (auth.Account, error)
	Login(ctx context.Context, email, password string) (auth.Account, error)
	VerifyToken(ctx context.Context, token string) (*auth.Identity, error)
}

// Payments is the order service used by the payment endpoints.
type Payments interface {
	CreateOrder(ctx context.Context, amount float64, currency, userID string) (payment.Order, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature, userID string) (payment.Order, error)
}

// Config wires a Server. Accounts, Payments, Health and Metrics are optional;
// their routes are only mounted when set.
type Config struct {
	Directory *directory.Service
	Accounts  Accounts
	Payments  Payments
	Health    *health.Aggregator
	Metrics   http.Handler

	// Sessions provides per-session fast caches. Nil disables them.
	Sessions   *cache.Sessions
	SessionTTL time.Duration

	// Limiter bounds /api requests per client address. Nil disables it.
	Limiter *resilience.KeyedRateLimiter

	// AllowedOrigins restricts cross-origin callers when non-empty.
	AllowedOrigins []string

	// TrustedProxies lists proxies whose forwarding headers are honored.
	TrustedProxies []string

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	Logger  observe.Logger
	Version string
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	engine *gin.Engine
	logger observe.Logger
}

// New builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Directory == nil {
		return nil, ErrNilDirectory
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, engine: engine, logger: cfg.Logger}
	s.routes()
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(s.recovery(), s.accessLog(), securityHeaders())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	if s.cfg.Health != nil {
		health.Register(r, s.cfg.Health, s.cfg.Version)
	}
	if s.cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.cfg.Metrics))
	}

	api := r.Group("/api", s.rateLimit(), s.checkOrigin(), requireJSON())
	{
		api.GET("/tools", s.session(), s.findTools)
		api.GET("/tool-details", s.session(), s.toolDetails)
		api.GET("/compare", s.session(), s.compare)
		api.GET("/news", s.session(), s.news)
	}

	if s.cfg.Accounts != nil {
		a := api.Group("/auth")
		a.POST("/signup", s.signup)
		a.POST("/login", s.login)
		a.GET("/verify", s.requireAuth(), s.verify)
	}

	if s.cfg.Payments != nil && s.cfg.Accounts != nil {
		p := api.Group("/payment", s.requireAuth())
		p.POST("/order", s.createOrder)
		p.POST("/verify", s.verifyPayment)
	}
}

// HTTPConfig configures Run.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Run serves until ctx is done, then shuts down gracefully and waits for
// pending cache writes.
func (s *Server) Run(ctx context.Context, cfg HTTPConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, cfg)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg HTTPConfig) error {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info(ctx, "server listening", observe.Field{Key: "addr", Value: ln.Addr().String()})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.cfg.Directory.Wait()
	s.logger.Info(shutdownCtx, "server stopped")
	return err
}
