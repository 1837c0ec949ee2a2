package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/observe/exporters"
	"github.com/jonwraymond/toolverse/secret"
)

// Config is the full set of toolverse settings.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Generator GeneratorConfig `toml:"generator"`
	Cache     CacheConfig     `toml:"cache"`
	Auth      AuthConfig      `toml:"auth"`
	Payment   PaymentConfig   `toml:"payment"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// RateLimit and RateBurst bound requests per client address.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`

	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	// SessionTTL is how long an idle session fast cache is kept.
	SessionTTL Duration `toml:"session_ttl"`

	// SessionEntries bounds each session's fast cache.
	SessionEntries int `toml:"session_entries"`

	AllowedOrigins []string `toml:"allowed_origins"`
	TrustedProxies []string `toml:"trusted_proxies"`
	SecureCookies  bool     `toml:"secure_cookies"`
}

// StoreConfig locates the SQLite database shared by the cache, users and
// orders.
type StoreConfig struct {
	Path string `toml:"path"`
}

// GeneratorConfig configures the generative model and its guard.
type GeneratorConfig struct {
	APIKey        string   `toml:"api_key"`
	Model         string   `toml:"model"`
	Timeout       Duration `toml:"timeout"`
	Rate          float64  `toml:"rate"`
	Burst         int      `toml:"burst"`
	MaxConcurrent int      `toml:"max_concurrent"`
	MaxFailures   int      `toml:"max_failures"`
	ResetTimeout  Duration `toml:"reset_timeout"`
	QuotaBackoff  Duration `toml:"quota_backoff"`
}

// CacheConfig configures lifetimes per operation.
type CacheConfig struct {
	SearchTTL     Duration `toml:"search_ttl"`
	DetailsTTL    Duration `toml:"details_ttl"`
	ComparisonTTL Duration `toml:"comparison_ttl"`
	NewsTTL       Duration `toml:"news_ttl"`
	NewsFreshness Duration `toml:"news_freshness"`
	SingleFlight  bool     `toml:"single_flight"`
}

// AuthConfig configures account tokens.
type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	Issuer    string   `toml:"issuer"`
	TokenTTL  Duration `toml:"token_ttl"`
}

// PaymentConfig configures the payment gateway.
type PaymentConfig struct {
	Enabled   bool   `toml:"enabled"`
	BaseURL   string `toml:"base_url"`
	KeyID     string `toml:"key_id"`
	KeySecret string `toml:"key_secret"`
}

// TelemetryConfig configures logging, tracing and metrics.
type TelemetryConfig struct {
	ServiceName     string  `toml:"service_name"`
	LogLevel        string  `toml:"log_level"`
	TracingExporter string  `toml:"tracing_exporter"`
	SamplePct       float64 `toml:"sample_pct"`
	MetricsExporter string  `toml:"metrics_exporter"`
	// OTLPEndpoint overrides the OTEL_EXPORTER_OTLP_ENDPOINT environment.
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Default returns the built-in settings.
func Default() Config {
	p := cache.DefaultPolicies()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimit:       1,
			RateBurst:       60,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(90 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			SessionTTL:      Duration(30 * time.Minute),
			SessionEntries:  256,
		},
		Store: StoreConfig{Path: "toolverse.db"},
		Generator: GeneratorConfig{
			Model:         generate.DefaultModel,
			Timeout:       Duration(60 * time.Second),
			Rate:          2,
			Burst:         5,
			MaxConcurrent: 8,
			MaxFailures:   5,
			ResetTimeout:  Duration(30 * time.Second),
			QuotaBackoff:  Duration(time.Minute),
		},
		Cache: CacheConfig{
			SearchTTL:     Duration(p.Search.TTL),
			DetailsTTL:    Duration(p.Details.TTL),
			ComparisonTTL: Duration(p.Comparison.TTL),
			NewsTTL:       Duration(p.News.TTL),
			NewsFreshness: Duration(p.News.Freshness),
			SingleFlight:  true,
		},
		Auth: AuthConfig{
			Issuer:   "toolverse",
			TokenTTL: Duration(7 * 24 * time.Hour),
		},
		Telemetry: TelemetryConfig{
			ServiceName: "toolverse",
			LogLevel:    "info",
			SamplePct:   1.0,
		},
	}
}

// Load reads path (when non-empty) over the defaults and applies environment
// overrides from the process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML data over cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config: %s", strings.TrimSpace(strict.String()))
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: encoding: %w", err)
	}
	return b, nil
}

// envVar binds an environment variable to a setting. Names after the first
// are accepted as fallbacks.
type envVar struct {
	names []string
	set   func(*Config, string) error
}

var envVars = []envVar{
	{[]string{"TOOLVERSE_ADDR"}, func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{[]string{"TOOLVERSE_ALLOWED_ORIGINS", "CORS_ALLOWED_ORIGINS"}, func(c *Config, v string) error { c.Server.AllowedOrigins = splitList(v); return nil }},
	{[]string{"TOOLVERSE_DB_PATH"}, func(c *Config, v string) error { c.Store.Path = v; return nil }},
	{[]string{"TOOLVERSE_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"}, func(c *Config, v string) error { c.Generator.APIKey = v; return nil }},
	{[]string{"TOOLVERSE_GEMINI_MODEL"}, func(c *Config, v string) error { c.Generator.Model = v; return nil }},
	{[]string{"TOOLVERSE_JWT_SECRET", "JWT_SECRET"}, func(c *Config, v string) error { c.Auth.JWTSecret = v; return nil }},
	{[]string{"TOOLVERSE_RAZORPAY_KEY_ID", "RAZORPAY_KEY_ID"}, func(c *Config, v string) error { c.Payment.KeyID = v; return nil }},
	{[]string{"TOOLVERSE_RAZORPAY_KEY_SECRET", "RAZORPAY_KEY_SECRET"}, func(c *Config, v string) error { c.Payment.KeySecret = v; return nil }},
	{[]string{"TOOLVERSE_PAYMENT_ENABLED"}, func(c *Config, v string) error { return parseBool(v, &c.Payment.Enabled) }},
	{[]string{"TOOLVERSE_LOG_LEVEL"}, func(c *Config, v string) error { c.Telemetry.LogLevel = v; return nil }},
	{[]string{"TOOLVERSE_TRACING_EXPORTER"}, func(c *Config, v string) error { c.Telemetry.TracingExporter = v; return nil }},
	{[]string{"TOOLVERSE_METRICS_EXPORTER"}, func(c *Config, v string) error { c.Telemetry.MetricsExporter = v; return nil }},
	{[]string{"TOOLVERSE_OTLP_ENDPOINT"}, func(c *Config, v string) error { c.Telemetry.OTLPEndpoint = v; return nil }},
	{[]string{"TOOLVERSE_SINGLE_FLIGHT"}, func(c *Config, v string) error { return parseBool(v, &c.Cache.SingleFlight) }},
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	for _, ev := range envVars {
		for _, name := range ev.names {
			v, ok := lookup(name)
			if !ok || v == "" {
				continue
			}
			if err := ev.set(cfg, v); err != nil {
				return fmt.Errorf("config: %s: %w", name, err)
			}
			break
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

// Resolve expands secret references in the credential fields. Empty fields
// stay empty; requirements are checked by the components that need them.
func (c Config) Resolve(ctx context.Context, r *secret.Resolver) (Config, error) {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"generator.api_key", &c.Generator.APIKey},
		{"auth.jwt_secret", &c.Auth.JWTSecret},
		{"payment.key_id", &c.Payment.KeyID},
		{"payment.key_secret", &c.Payment.KeySecret},
	}
	for _, f := range fields {
		if *f.ptr == "" {
			continue
		}
		v, err := r.ResolveValue(ctx, *f.ptr)
		if err != nil {
			return Config{}, fmt.Errorf("config: resolving %s: %w", f.name, err)
		}
		*f.ptr = v
	}
	return c, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return ErrInvalidAddr
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return ErrInvalidStorePath
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("%w: %v/s burst %d", ErrInvalidRate, c.Server.RateLimit, c.Server.RateBurst)
	}

	durations := map[string]Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"server.session_ttl":      c.Server.SessionTTL,
		"generator.timeout":       c.Generator.Timeout,
		"generator.reset_timeout": c.Generator.ResetTimeout,
		"generator.quota_backoff": c.Generator.QuotaBackoff,
		"cache.search_ttl":        c.Cache.SearchTTL,
		"cache.details_ttl":       c.Cache.DetailsTTL,
		"cache.comparison_ttl":    c.Cache.ComparisonTTL,
		"cache.news_ttl":          c.Cache.NewsTTL,
		"cache.news_freshness":    c.Cache.NewsFreshness,
		"auth.token_ttl":          c.Auth.TokenTTL,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%w: %s = %s", ErrInvalidDuration, name, d.D())
		}
	}
	if c.Cache.NewsTTL > 0 && c.Cache.NewsFreshness > c.Cache.NewsTTL {
		return fmt.Errorf("%w: %s > %s", ErrInvalidFreshness, c.Cache.NewsFreshness.D(), c.Cache.NewsTTL.D())
	}

	if c.Payment.Enabled && (c.Payment.KeyID == "" || c.Payment.KeySecret == "") {
		return fmt.Errorf("%w: payment.key_id and payment.key_secret", ErrMissingSecret)
	}

	obs := c.Observe("")
	return obs.Validate()
}

// Policies returns the cache policies.
func (c Config) Policies() cache.Policies {
	p := cache.DefaultPolicies()
	p.Search.TTL = c.Cache.SearchTTL.D()
	p.Details.TTL = c.Cache.DetailsTTL.D()
	p.Comparison.TTL = c.Cache.ComparisonTTL.D()
	p.News.TTL = c.Cache.NewsTTL.D()
	p.News.Freshness = c.Cache.NewsFreshness.D()
	return p
}

// ClientConfig returns the generation guard settings.
func (c Config) ClientConfig() generate.ClientConfig {
	g := c.Generator
	return generate.ClientConfig{
		Timeout:       g.Timeout.D(),
		Rate:          g.Rate,
		Burst:         g.Burst,
		MaxConcurrent: g.MaxConcurrent,
		MaxFailures:   g.MaxFailures,
		ResetTimeout:  g.ResetTimeout.D(),
		QuotaBackoff:  g.QuotaBackoff.D(),
	}
}

// GeminiConfig returns the model adapter settings.
func (c Config) GeminiConfig() generate.GeminiConfig {
	return generate.GeminiConfig{APIKey: c.Generator.APIKey, Model: c.Generator.Model}
}

// Observe returns the telemetry settings for version.
func (c Config) Observe(version string) observe.Config {
	t := c.Telemetry
	return observe.Config{
		ServiceName: t.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   t.TracingExporter != "" && t.TracingExporter != "none",
			Exporter:  t.TracingExporter,
			SamplePct: t.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  t.MetricsExporter != "" && t.MetricsExporter != "none",
			Exporter: t.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   t.LogLevel,
		},
		Exporters: exporters.Options{Endpoint: t.OTLPEndpoint},
	}
}

// Redacted returns a copy with credentials masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Generator.APIKey = mask(c.Generator.APIKey)
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	c.Payment.KeySecret = mask(c.Payment.KeySecret)
	return c
}
