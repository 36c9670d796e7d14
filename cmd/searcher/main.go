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
	"time"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/pkg/redis"
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
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"default_model", cfg.Retrieval.DefaultModel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, err := index.LoadCorpus(ctx, cfg.Index.CorpusPath)
	if err != nil {
		slog.Error("failed to load corpus", "path", cfg.Index.CorpusPath, "error", err)
		os.Exit(1)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		m.IndexDocuments.Set(float64(snapshot.DocumentCount()))
		m.IndexTerms.Set(float64(snapshot.TermCount()))
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	exec, err := executor.New(snapshot, cfg.Retrieval, m, cfg.Tracing)
	if err != nil {
		slog.Error("invalid retrieval configuration", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if snapshot.DocumentCount() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d documents, %d terms", snapshot.DocumentCount(), snapshot.TermCount()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "empty corpus"}
	})

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.PingCheck(redisClient.Ping))
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)

			// one group per service so every deployment sees invalidations
			invalidateCfg := cfg.Kafka
			invalidateCfg.ConsumerGroup = cfg.Kafka.ConsumerGroup + "-searcher"
			invalidations := kafka.NewConsumer(invalidateCfg, cfg.Kafka.Topics.CacheInvalidate, cache.InvalidateOnMessage(queryCache))
			defer invalidations.Close()
			go func() {
				if err := invalidations.Start(ctx); err != nil {
					slog.Error("cache invalidation consumer stopped", "error", err)
				}
			}()
		}
	}

	var tracker handler.EventTracker
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval, m)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	h := handler.New(exec, queryCache, tracker, m)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
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

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
