// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"staticpress/internal/cache"
	"staticpress/internal/config"
	"staticpress/internal/content"
	"staticpress/internal/database"
	"staticpress/internal/engine"
	"staticpress/internal/generator"
	"staticpress/internal/handlers"
	"staticpress/internal/hooks"
	"staticpress/internal/linkrewrite"
	"staticpress/internal/minify"
	"staticpress/internal/storage"
	"staticpress/internal/store"
)

// app is the wired set of services one command works with. Optional
// services (Valkey, S3) are nil when unconfigured or unreachable.
type app struct {
	cfg       *config.Config
	src       content.Source
	records   *store.Records
	engine    *engine.Engine
	hooks     *hooks.Registry
	cache     *cache.Store
	valkey    *redis.Client
	storage   *storage.Client
	pageCache *cache.PageCache
	closers   []func() error
}

// newApp connects to the configured services. With a fixture the site is
// read from the TOML file and no database is needed.
func newApp(ctx context.Context, o *rootOptions) (*app, error) {
	cfg := o.cfg
	a := &app{cfg: cfg, hooks: hooks.NewRegistry()}

	if o.fixture != "" {
		mem, err := content.LoadFixture(o.fixture)
		if err != nil {
			return nil, err
		}
		a.src = mem
		a.engine = engine.New(mem)
		slog.Info("site loaded from fixture", "path", o.fixture)
	} else {
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
		// Seed a starter site in development (no-op if pages exist).
		if cfg.IsDev() {
			if err := database.Seed(ctx, db); err != nil {
				a.Close()
				return nil, err
			}
		}
		a.records = store.New(db)
		a.src = a.records.Source()
		a.engine = engine.New(a.records.TemplateSource())
	}

	// A broken template only fails its own pages; a fixture is fixed
	// before it is published, so it fails fast.
	if err := a.engine.Check(ctx); err != nil {
		if o.fixture != "" {
			a.Close()
			return nil, fmt.Errorf("fixture templates: %w", err)
		}
		slog.Warn("templates do not compile", "error", err)
	}

	if cfg.ValkeyHost != "" {
		client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			// Valkey only adds cross-host coordination; a single host
			// publishes fine without it.
			slog.Warn("valkey unavailable, publish lock and change broadcast disabled", "error", err)
		} else {
			a.valkey = client
			a.closers = append(a.closers, client.Close)
			a.pageCache = cache.NewPageCache(client, cfg.PageCacheTTL)
		}
	}

	client, err := storage.New(storage.Options{
		Endpoint:    cfg.S3Endpoint,
		Region:      cfg.S3Region,
		AccessKey:   cfg.S3AccessKey,
		SecretKey:   cfg.S3SecretKey,
		MediaBucket: cfg.S3BucketMedia,
		PublicURL:   cfg.S3PublicURL,
		SiteBucket:  cfg.S3BucketSite,
		SitePrefix:  cfg.S3SitePrefix,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.storage = client
	if client == nil {
		slog.Debug("s3 storage not configured, media urls left relative")
	}

	a.cache = cache.NewStore(cfg.CacheRoot)
	if cfg.Minify {
		a.cache.SetMinifier(minify.New())
	}
	linkrewrite.New(cfg.SiteURL).Register(a.hooks)

	return a, nil
}

// Close releases every connection the app opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// Generator wires the publish engine with every optional service that is
// available.
func (a *app) Generator() *generator.Generator {
	opts := generator.Options{
		Hooks:     a.hooks,
		SiteURL:   a.cfg.SiteURL,
		PageCache: a.pageCache,
	}
	if a.storage != nil {
		opts.MediaURLs = a.storage
		mirror, err := a.storage.Mirror()
		switch {
		case err == nil:
			opts.Mirror = mirror
		case errors.Is(err, storage.ErrNoSiteBucket):
			slog.Debug("no site bucket, published files are not mirrored")
		default:
			slog.Warn("site mirror disabled", "error", err)
		}
	}
	if a.valkey != nil {
		opts.Lock = cache.NewPublishLock(a.valkey, a.cache.Root(), a.cfg.PublishLockTTL)
		opts.Notifier = cache.NewNotifier(a.valkey)
	}
	if a.records != nil {
		opts.ChangeLog = a.records.CacheLog
	}
	return generator.New(a.src, a.cache, a.engine, opts)
}

// Public wires the dynamic page handler.
func (a *app) Public() *handlers.Public {
	opts := handlers.Options{
		Hooks:     a.hooks,
		PageCache: a.pageCache,
		Debug:     a.cfg.Debug,
	}
	if a.storage != nil {
		opts.MediaURLs = a.storage
	}
	return handlers.NewPublic(a.src, a.engine, opts)
}
