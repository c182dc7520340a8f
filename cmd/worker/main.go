// Package main provides the worker application entry point.
// The worker builds question plans from the Redpanda queue and runs the
// housekeeping loops for stale plans and old interview data.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/app"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/config"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/planner"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Expose job metrics on a dedicated port for Prometheus.
	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.WorkerMetricsPort), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		if err := srv.ListenAndServe(); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("schema migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis only backs the shared generator bucket here.
	redisOpts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid redis url", slog.Any("error", err))
		os.Exit(1)
	}
	rdb := goredis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	gen := app.BuildGenerator(cfg, rdb)

	planRepo := postgres.NewPlanRepo(pool)
	plans := usecase.NewPlanService(planRepo, nil, planner.New(gen, cfg.PlannerBucketRetries, cfg.PlannerConcurrency))

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.PlanConsumerGroup, cfg.ConsumerTransactionID, cfg.PlanTopic, cfg.ConsumerMaxConcurrency, plans)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	// Plans stuck in processing after a crash are failed so clients stop polling.
	if sweeper := app.NewStuckPlanSweeper(planRepo, cfg.PlanStaleAfter, 0); sweeper != nil {
		go sweeper.Run(ctx)
	}

	cleanup := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
	go cleanup.RunPeriodic(ctx, cfg.CleanupInterval)

	slog.Info("starting redpanda consumer", slog.String("topic", cfg.PlanTopic), slog.String("group", cfg.PlanConsumerGroup))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("worker error", slog.Any("error", err))
		}
	}()

	slog.Info("worker started successfully, waiting for shutdown signal")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	slog.Info("signal received, shutting down", slog.String("signal", sig.String()))
	stop()
	slog.Info("worker stopped")
}
