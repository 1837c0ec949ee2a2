package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/health"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/payment"
	"github.com/jonwraymond/toolverse/resilience"
	"github.com/jonwraymond/toolverse/server"
)

// purgeInterval is how often serve drops expired cache rows.
const purgeInterval = time.Hour

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(cmd, func(_ context.Context, a *app) error {
			if flagAddr != "" {
				a.cfg.Server.Addr = flagAddr
			}
			srv, err := newServer(a)
			if err != nil {
				return err
			}

			go purgeLoop(ctx, a.store, a.logger, purgeInterval)

			sc := a.cfg.Server
			a.logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: sc.Addr}, observe.Field{Key: "version", Value: version})
			return srv.Run(ctx, server.HTTPConfig{
				Addr:            sc.Addr,
				ReadTimeout:     sc.ReadTimeout.D(),
				WriteTimeout:    sc.WriteTimeout.D(),
				ShutdownTimeout: sc.ShutdownTimeout.D(),
			})
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides server.addr)")
}

// newServer assembles the HTTP front end. Accounts are mounted when a JWT
// secret is configured; payments additionally need payment.enabled.
func newServer(a *app) (*server.Server, error) {
	cfg := a.cfg
	gin.SetMode(gin.ReleaseMode)

	sessions := cache.NewSessions(cfg.Server.SessionTTL.D(), cfg.Server.SessionEntries, cache.WithLogger(a.logger))
	sc := server.Config{
		Directory:      a.dir,
		Health:         newHealth(a, sessions),
		Sessions:       sessions,
		SessionTTL:     cfg.Server.SessionTTL.D(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		SecureCookies:  cfg.Server.SecureCookies,
		Logger:         a.logger,
		Version:        version,
		Limiter: resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.Server.RateLimit,
			Burst: cfg.Server.RateBurst,
		}, 0),
	}
	if cfg.Telemetry.MetricsExporter == "prometheus" {
		sc.Metrics = promhttp.Handler()
	}

	if cfg.Auth.JWTSecret == "" {
		a.logger.Warn(context.Background(), "auth.jwt_secret not set; account and payment routes disabled")
		return server.New(sc)
	}
	accounts, err := newAccounts(a)
	if err != nil {
		return nil, err
	}
	sc.Accounts = accounts

	if cfg.Payment.Enabled {
		payments, err := newPayments(a, accounts)
		if err != nil {
			return nil, err
		}
		sc.Payments = payments
	}
	return server.New(sc)
}

func newAccounts(a *app) (*auth.Service, error) {
	store, err := auth.NewSQLiteStore(a.store.DB())
	if err != nil {
		return nil, fmt.Errorf("opening user store: %w", err)
	}
	tokens := auth.NewJWTAuthenticator(auth.JWTConfig{
		Issuer: a.cfg.Auth.Issuer,
		TTL:    a.cfg.Auth.TokenTTL.D(),
	}, auth.NewStaticKeyProvider([]byte(a.cfg.Auth.JWTSecret)))
	return auth.NewService(auth.Config{Store: store, Tokens: tokens, Logger: a.logger})
}

func newPayments(a *app, upgrader payment.PlanUpgrader) (*payment.Service, error) {
	pc := a.cfg.Payment
	gateway, err := payment.NewRazorpayGateway(payment.GatewayConfig{
		BaseURL:   pc.BaseURL,
		KeyID:     pc.KeyID,
		KeySecret: pc.KeySecret,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, err
	}
	store, err := payment.NewSQLiteStore(a.store.DB())
	if err != nil {
		return nil, fmt.Errorf("opening order store: %w", err)
	}
	return payment.NewService(payment.Config{
		Gateway:  gateway,
		Store:    store,
		Upgrader: upgrader,
		Secret:   []byte(pc.KeySecret),
		Logger:   a.logger,
	})
}

func newHealth(a *app, sessions *cache.Sessions) *health.Aggregator {
	agg := health.NewAggregator(5 * time.Second)
	agg.Register(health.NewStoreChecker("store", a.store))
	agg.Register(health.NewCircuitChecker("generator", a.client.Circuit))
	agg.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{Sessions: sessions.Len}))
	return agg
}

// purgeLoop deletes expired cache entries every interval until ctx ends.
func purgeLoop(ctx context.Context, store *cache.SQLiteCache, logger observe.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Purge(ctx)
			if err != nil {
				logger.Warn(ctx, "cache purge failed", observe.Field{Key: "error", Value: err.Error()})
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "cache purged", observe.Field{Key: "deleted", Value: n})
			}
		}
	}
}
