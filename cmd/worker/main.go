// Command worker validates upstream snapshots on a schedule and invalidates the shared
// Redis cache so dashboards pick up new data.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablero-fiscal/tablero/internal/app"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	jobmetrics "github.com/tablero-fiscal/tablero/internal/jobs"
	"github.com/tablero-fiscal/tablero/internal/platform/cache"
	"github.com/tablero-fiscal/tablero/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	if err := run(); err != nil {
		slog.Default().Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadToolConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	asynqOpts, err := app.AsynqRedis(cfg)
	if err != nil {
		return err
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	upstream, err := app.NewSnapshotProvider(cfg, logger)
	if err != nil {
		return err
	}
	cached := dataset.NewCachedProvider(upstream, redisClient, cfg.SnapshotCacheTTL)
	refreshJob := jobs.NewSnapshotRefreshJob(upstream, cached, logger, jobmetrics.NewMetrics(nil))

	refreshTask, err := jobs.NewSnapshotRefreshTask()
	if err != nil {
		return err
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynqOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WorkerRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		return err
	}

	metricsSrv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("worker started",
		slog.String("cron", cfg.WorkerRefreshCron),
		slog.String("snapshots", cfg.SnapshotSource),
		slog.String("metrics", cfg.WorkerMetricsAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("worker stopped")
	return nil
}
