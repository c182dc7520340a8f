// Command server starts the mock interviewer HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/cache/redis"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/app"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/config"
	"github.com/fairyhunter13/ai-mock-interviewer/internal/interview"
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

	observability.InitMetrics()
	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
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

	redisOpts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid redis url", slog.Any("error", err))
		os.Exit(1)
	}
	rdb := goredis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	sessions := redis.NewSessionStore(rdb, cfg.SessionTTL)

	templates, err := config.LoadTemplates(cfg.InterviewTemplatesPath)
	if err != nil {
		slog.Error("interview templates load failed", slog.Any("error", err))
		os.Exit(1)
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers, cfg.ProducerTransactionID, cfg.PlanTopic, cfg.InterviewEventsTopic)
	if err != nil {
		slog.Error("queue producer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("failed to close queue producer", slog.Any("error", err))
		}
	}()

	interviewRepo := postgres.NewInterviewRepo(pool)
	planRepo := postgres.NewPlanRepo(pool)

	gen := app.BuildGenerator(cfg, rdb)
	machine := interview.NewMachine(gen,
		interview.WithSink(interviewRepo),
		interview.WithRatingConcurrency(cfg.RatingConcurrency),
	)
	interviews := usecase.NewInterviewService(machine, sessions, templates, planRepo, interviewRepo, producer,
		cfg.InterviewLimits(), cfg.SessionInputsPerSecond, cfg.SessionInputBurst)
	plans := usecase.NewPlanService(planRepo, producer, nil)

	checks := app.BuildReadinessChecks(pool, sessions, producer)
	srv := httpserver.NewServer(cfg, interviews, plans, checks...)
	handler := app.BuildRouter(cfg, srv)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", server.Addr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("signal received, shutting down", slog.String("signal", sig.String()))
	case err := <-errCh:
		slog.Error("server error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
	slog.Info("server stopped")
}
