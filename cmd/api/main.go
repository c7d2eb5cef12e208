package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-rental-catalog/internal/api"
	"car-rental-catalog/internal/app"
	"car-rental-catalog/internal/auth"
	"car-rental-catalog/internal/config"
	"car-rental-catalog/internal/logger"
	"car-rental-catalog/internal/worker"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("component", "api"))
	defer log.Sync()

	// ── Infrastructure ─────────────────────────────────────────────────────────

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	deps, err := app.Open(startCtx, cfg, log, app.Options{WithCache: true})
	if err != nil {
		cancel()
		log.Fatal("backend init failed", zap.Error(err))
	}

	// Declare the index mapping before the first write can auto-create the
	// index with a dynamic one. The index is best-effort, so failure only warns.
	if err := deps.Service.ConfigureIndex(startCtx); err != nil {
		log.Warn("search index configure failed", zap.Error(err))
	}
	cancel()

	var verifier auth.Verifier
	switch cfg.AuthProvider {
	case "hmac":
		verifier = auth.NewHMACVerifier(cfg.AuthHMACSecret)
	default:
		verifier = auth.NewFirebaseVerifier(cfg.FirebaseProjectID, cfg.FirebaseCertsURL, nil)
	}
	guard := auth.NewGuard(verifier, cfg.AdminEmailDomain, log)

	// ── Background cron ────────────────────────────────────────────────────────
	//
	// The scheduled reindex follows the same policy as /api/reindex.

	var cronScheduler *cron.Cron
	if cfg.ReindexSchedule != "" && !cfg.IsProduction() {
		cronScheduler, err = worker.StartCronJobs(deps.Service, cfg.ReindexSchedule, log)
		if err != nil {
			log.Fatal("invalid cron schedule", zap.String("schedule", cfg.ReindexSchedule), zap.Error(err))
		}
	}

	// ── HTTP server ────────────────────────────────────────────────────────────

	h := &api.Handler{
		Catalog:     deps.Service,
		Log:         log,
		Production:  cfg.IsProduction(),
		Development: cfg.IsDevelopment(),
	}
	if deps.Search != nil {
		h.Index = deps.Search
	}

	srv := &http.Server{
		Addr: ":" + cfg.APIPort,
		Handler: h.NewRouter(api.RouterOptions{
			Guard:          guard.Middleware,
			Limiter:        api.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log),
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api started", zap.String("port", cfg.APIPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	//
	// Shutdown order matters:
	//  1. Stop accepting new HTTP requests; in-flight requests finish.
	//  2. Stop the cron scheduler; a running reindex completes first.
	//  3. Close publisher, cache and store in reverse init order.

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}

	if cronScheduler != nil {
		<-cronScheduler.Stop().Done()
		log.Info("cron stopped")
	}

	deps.Close(httpCtx)
	log.Info("shutdown complete")
}
