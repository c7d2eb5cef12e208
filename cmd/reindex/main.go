// Command reindex runs catalog maintenance outside the API: it declares the
// search index settings, rebuilds the index from the store, and can remove
// duplicate brands.
//
//	reindex                    configure the index, then rebuild it
//	reindex -configure-only    only declare settings and mappings
//	reindex -dedupe-brands     remove brands whose name repeats an older one
//	reindex -dry-run           with -dedupe-brands, list without deleting
//
// Refuses to run with APP_ENV=production unless -allow-production is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"car-rental-catalog/internal/app"
	"car-rental-catalog/internal/config"
	"car-rental-catalog/internal/logger"

	"go.uber.org/zap"
)

const runTimeout = 10 * time.Minute

type flags struct {
	configureOnly   bool
	dedupeBrands    bool
	dryRun          bool
	allowProduction bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("reindex", flag.ContinueOnError)
	fs.BoolVar(&f.configureOnly, "configure-only", false, "declare index settings and mappings, skip the rebuild")
	fs.BoolVar(&f.dedupeBrands, "dedupe-brands", false, "remove brands whose name repeats an older brand")
	fs.BoolVar(&f.dryRun, "dry-run", false, "with -dedupe-brands, report duplicates without deleting")
	fs.BoolVar(&f.allowProduction, "allow-production", false, "permit running against APP_ENV=production")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.dryRun && !f.dedupeBrands {
		return f, errors.New("-dry-run only applies to -dedupe-brands")
	}
	if f.configureOnly && f.dedupeBrands {
		return f, errors.New("-configure-only and -dedupe-brands are exclusive")
	}
	return f, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("component", "reindex"))
	defer log.Sync()

	if cfg.IsProduction() && !f.allowProduction {
		log.Fatal("refusing to run in production without -allow-production")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// A shared Redis cache is opened so brand deletions reach the API's
	// cached lists; the per-process memory cache is of no use here.
	deps, err := app.Open(ctx, cfg, log, app.Options{
		WithCache: cfg.CacheDriver == "redis",
		Direct:    true,
	})
	if err != nil {
		log.Fatal("backend init failed", zap.Error(err))
	}
	defer deps.Close(context.Background())

	if err := run(ctx, deps, f, log); err != nil {
		log.Error("maintenance failed", zap.Error(err))
		deps.Close(context.Background())
		os.Exit(1)
	}
}

func run(ctx context.Context, deps *app.Deps, f flags, log *zap.Logger) error {
	svc := deps.Service

	if f.dedupeBrands {
		removed, err := svc.DedupeBrands(ctx, f.dryRun)
		if err != nil {
			return err
		}
		for _, b := range removed {
			log.Info("duplicate brand", zap.String("brand_id", b.ID), zap.String("name", b.Name), zap.Bool("dry_run", f.dryRun))
		}
		log.Info("brand dedupe done", zap.Int("duplicates", len(removed)), zap.Bool("dry_run", f.dryRun))
		return nil
	}

	if err := svc.ConfigureIndex(ctx); err != nil {
		return err
	}
	log.Info("index configured")
	if f.configureOnly {
		return nil
	}

	n, err := svc.Reindex(ctx)
	if err != nil {
		return err
	}
	log.Info("reindex done", zap.Int("records", n))
	return nil
}
