package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"car-rental-catalog/internal/config"
	"car-rental-catalog/internal/logger"
	"car-rental-catalog/internal/queue"
	"car-rental-catalog/internal/search"
	"car-rental-catalog/internal/worker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat).With(zap.String("component", "worker"))
	defer log.Sync()

	if cfg.SearchSyncMode != "queue" {
		log.Fatal("worker requires SEARCH_SYNC_MODE=queue", zap.String("mode", cfg.SearchSyncMode))
	}

	// ── Infrastructure ─────────────────────────────────────────────────────────

	searchClient, err := search.New(search.Config{
		URL:      cfg.ElasticsearchURL,
		Username: cfg.ElasticsearchUsername,
		Password: cfg.ElasticsearchPassword,
		APIKey:   cfg.ElasticsearchAPIKey,
		Index:    cfg.SearchIndex,
	})
	if err != nil {
		log.Fatal("elasticsearch init failed", zap.Error(err))
	}

	consumer, err := queue.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("rabbitmq connect failed", zap.Error(err))
	}

	// ── Run ────────────────────────────────────────────────────────────────────
	//
	// ctx is cancelled on SIGINT/SIGTERM; Run finishes the in-flight message
	// and returns before the connection is closed.

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := searchClient.Ping(startCtx); err != nil {
		log.Warn("elasticsearch not reachable yet, events will be requeued", zap.Error(err))
	} else if err := searchClient.ConfigureIndex(startCtx); err != nil {
		log.Warn("search index configure failed", zap.Error(err))
	}
	cancel()

	w := worker.New(searchClient, consumer, log)
	if err := w.Run(ctx); err != nil {
		log.Error("worker error", zap.Error(err))
	}

	consumer.Close()
	log.Info("worker stopped")
}
