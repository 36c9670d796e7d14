// Command analytics starts the standalone analytics aggregation service.
//
// It consumes search events from Kafka, aggregates them in memory (per-model
// query counts, latency percentiles, cache hit rate, zero-result queries),
// snapshots the aggregate to PostgreSQL and serves it at
// GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}
	agg := analytics.NewAggregator(m)

	checker := health.NewChecker()

	// Snapshots are best effort; the live API works without a database.
	var snapshots analytics.SnapshotLister
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		store := aggregator.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("analytics migration failed", "error", err)
			os.Exit(1)
		}
		if latest, err := store.LatestSnapshot(ctx); err != nil {
			slog.Warn("could not read latest snapshot", "error", err)
		} else if latest != nil {
			slog.Info("previous snapshot found", "total_searches", latest.TotalSearches)
		}
		store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
		checker.Register("postgres", health.PingCheck(db.Ping))
		snapshots = store
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(agg))
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer stopped", "error", err)
		}
	}()
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.SearchEvents)

	checker.Register("kafka", health.Static(health.StatusUp, "consumer active"))

	h := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if m != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
