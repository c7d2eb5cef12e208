package catalog

import (
	"context"
	"errors"
	"time"

	"car-rental-catalog/internal/apperr"
	"car-rental-catalog/internal/cache"
	"car-rental-catalog/internal/database"
	"car-rental-catalog/internal/metrics"

	"go.uber.org/zap"
)

// Storefront list sizes.
const (
	FeaturedCarsLimit       = 6
	FeaturedBrandsLimit     = 8
	FeaturedCategoriesLimit = 6
	PageSize                = 12
	SearchLimit             = 20
)

// ErrSearchDisabled is returned by operations that need a search backend
// when none is configured.
var ErrSearchDisabled = errors.New("search index is not configured")

type Options struct {
	Store Store
	// Search is nil when no hosted index is configured; searches then use
	// the in-process fallback.
	Search   Searcher
	Syncer   *Syncer
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Service is the catalog facade used by the HTTP layer and the CLIs.
type Service struct {
	store    Store
	search   Searcher
	sync     *Syncer
	cache    cache.Cache
	cacheTTL time.Duration
	validate *inputValidator
	log      *zap.Logger
}

func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := opts.Cache
	if c == nil {
		c = cache.Noop{}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	sync := opts.Syncer
	if sync == nil {
		sync = NewSyncer(nil, opts.Store, log)
	}
	return &Service{
		store:    opts.Store,
		search:   opts.Search,
		sync:     sync,
		cache:    c,
		cacheTTL: ttl,
		validate: newInputValidator(),
		log:      log.With(zap.String("component", "catalog")),
	}
}

// Ping checks the document store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ConfigureIndex declares the search index settings.
func (s *Service) ConfigureIndex(ctx context.Context) error {
	return s.sync.ConfigureIndex(ctx)
}

// Reindex rebuilds the search index from the store.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	n, err := s.sync.ReindexAll(ctx)
	if err != nil {
		if errors.Is(err, ErrSearchDisabled) {
			return 0, apperr.Wrap(apperr.KindUpstream, "Search index is not configured", err)
		}
		return 0, apperr.Upstream("Failed to reindex cars", err)
	}
	return n, nil
}

// storeError maps a store failure to the error taxonomy.
func storeError(err error, notFound, failed string) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Upstream(failed, err)
}

// cached serves key from the read cache, loading and back-filling it on a
// miss. Cache failures are logged and never fail the read. Nothing is
// stored once ctx is done.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	err := s.cache.Get(ctx, key, &v)
	switch {
	case err == nil:
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return v, nil
	case errors.Is(err, cache.ErrNotFound):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if ctx.Err() != nil {
		return v, nil
	}
	if err := s.cache.Set(ctx, key, v, s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
