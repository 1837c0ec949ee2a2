package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/config"
	"github.com/jonwraymond/toolverse/directory"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/secret"
)

// newGenerator builds the model adapter. Tests replace it.
var newGenerator = func(ctx context.Context, cfg config.Config) (generate.Generator, error) {
	return generate.NewGemini(ctx, cfg.GeminiConfig())
}

// app holds the components shared by every command that touches the
// directory.
type app struct {
	cfg    config.Config
	obs    observe.Observer
	mw     *observe.Middleware
	logger observe.Logger
	store  *cache.SQLiteCache
	client *generate.Client
	dir    *directory.Service
}

func loadConfig(ctx context.Context) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	cfg, err = cfg.Resolve(ctx, secret.Default())
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore opens the SQLite cache without the rest of the stack.
func openStore(cfg config.Config, logger observe.Logger) (*cache.SQLiteCache, error) {
	db, err := cache.OpenDB(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	store, err := cache.NewSQLite(db, cache.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe(version))
	if err != nil {
		return nil, fmt.Errorf("starting telemetry: %w", err)
	}
	a := &app{cfg: cfg, obs: obs}
	a.mw, err = observe.MiddlewareFromObserver(obs)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.logger = a.mw.Logger()

	if a.store, err = openStore(cfg, a.logger); err != nil {
		a.Close(ctx)
		return nil, err
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	if a.client, err = generate.NewClient(gen, cfg.ClientConfig(), a.logger); err != nil {
		a.Close(ctx)
		return nil, err
	}

	policies := cfg.Policies()
	a.dir, err = directory.New(directory.Config{
		Store:               a.store,
		Generator:           a.client,
		Policies:            &policies,
		Middleware:          a.mw,
		Logger:              a.logger,
		DisableSingleFlight: !cfg.Cache.SingleFlight,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// Close waits for pending cache writes, then releases the store and flushes
// telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.dir != nil {
		a.dir.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	if a.obs != nil {
		if err := a.obs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
