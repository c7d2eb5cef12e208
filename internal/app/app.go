// Package app wires the configured backends into a catalog.Service. The
// api, worker and reindex binaries share it.
package app

import (
	"context"
	"fmt"

	"car-rental-catalog/internal/cache"
	"car-rental-catalog/internal/catalog"
	"car-rental-catalog/internal/config"
	"car-rental-catalog/internal/database"
	"car-rental-catalog/internal/queue"
	"car-rental-catalog/internal/search"

	"go.uber.org/zap"
)

// Deps holds the opened backends. Search and Publisher are nil when not
// configured.
type Deps struct {
	Store     catalog.Store
	Search    *search.Client
	Publisher *queue.Publisher
	Cache     cache.Cache
	Service   *catalog.Service

	closers []func(context.Context)
	log     *zap.Logger
}

// Options select which optional parts Open builds.
type Options struct {
	// WithCache builds the configured read cache; otherwise reads are not
	// cached.
	WithCache bool
	// Direct forces index writes to go straight to Elasticsearch even in
	// queue mode. The worker and the maintenance CLI use it.
	Direct bool
}

// Open connects the store, search index, queue and cache named by cfg. On
// error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (_ *Deps, err error) {
	d := &Deps{log: log}
	defer func() {
		if err != nil {
			d.Close(context.Background())
		}
	}()

	// ── Document store ─────────────────────────────────────────────────────

	switch cfg.StoreDriver {
	case "postgres":
		pg, err := database.ConnectPostgres(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		d.onClose(func(context.Context) { pg.Close() })
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		d.Store = pg
	default:
		m, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		d.onClose(func(ctx context.Context) { _ = m.Close(ctx) })
		if err := m.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		d.Store = m
	}

	// ── Search index ───────────────────────────────────────────────────────

	// Interface fields stay nil, not typed-nil, when search is off so the
	// service falls back to in-process matching.
	var (
		searcher catalog.Searcher
		writer   catalog.IndexWriter
	)
	if cfg.SearchEnabled() {
		d.Search, err = search.New(search.Config{
			URL:      cfg.ElasticsearchURL,
			Username: cfg.ElasticsearchUsername,
			Password: cfg.ElasticsearchPassword,
			APIKey:   cfg.ElasticsearchAPIKey,
			Index:    cfg.SearchIndex,
		})
		if err != nil {
			return nil, err
		}
		searcher, writer = d.Search, d.Search

		if cfg.SearchSyncMode == "queue" && !opts.Direct {
			d.Publisher, err = queue.NewPublisher(cfg.RabbitMQURL)
			if err != nil {
				return nil, err
			}
			d.onClose(func(context.Context) { d.Publisher.Close() })
			writer = d.Publisher
		}
	}

	// ── Read cache ─────────────────────────────────────────────────────────

	d.Cache = cache.Noop{}
	if opts.WithCache {
		d.Cache, err = openCache(cfg)
		if err != nil {
			return nil, err
		}
		c := d.Cache
		d.onClose(func(context.Context) { _ = c.Close() })
	}

	d.Service = catalog.NewService(catalog.Options{
		Store:    d.Store,
		Search:   searcher,
		Syncer:   catalog.NewSyncer(writer, d.Store, log),
		Cache:    d.Cache,
		CacheTTL: cfg.CacheTTL,
		Logger:   log,
	})

	log.Info("catalog ready",
		zap.String("store", cfg.StoreDriver),
		zap.Bool("search", cfg.SearchEnabled()),
		zap.String("sync_mode", cfg.SearchSyncMode),
		zap.Bool("direct", opts.Direct),
		zap.String("cache", cacheName(cfg, opts)),
	)
	return d, nil
}

func openCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.CacheDriver {
	case "redis":
		r, err := cache.NewRedis(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return r, nil
	case "none":
		return cache.Noop{}, nil
	default:
		return cache.NewMemory(), nil
	}
}

func cacheName(cfg *config.Config, opts Options) string {
	if !opts.WithCache {
		return "none"
	}
	return cfg.CacheDriver
}

func (d *Deps) onClose(f func(context.Context)) {
	d.closers = append(d.closers, f)
}

// Close releases everything Open acquired, in reverse order.
func (d *Deps) Close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i](ctx)
	}
	d.closers = nil
}
