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

	"github.com/tablero-fiscal/tablero/internal/app"
	"github.com/tablero-fiscal/tablero/internal/auth"
	"github.com/tablero-fiscal/tablero/internal/dashboard"
	"github.com/tablero-fiscal/tablero/internal/dashboard/export"
	dashboardhttp "github.com/tablero-fiscal/tablero/internal/dashboard/http"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/observability"
	"github.com/tablero-fiscal/tablero/internal/platform/cache"
	"github.com/tablero-fiscal/tablero/internal/shared"
	"github.com/tablero-fiscal/tablero/internal/view"
	"github.com/tablero-fiscal/tablero/jobs"
	"github.com/tablero-fiscal/tablero/report"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] != "serve" {
		os.Exit(runCommand(os.Args[1:]))
	}

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "tablero_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo, closeAuth, err := app.OpenAuthRepository(ctx, cfg)
	if err != nil {
		logger.Error("open auth repository", slog.String("backend", cfg.AuthBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeAuth()
	authService := auth.NewService(authRepo, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	metrics := observability.NewMetrics()

	upstream, err := app.NewSnapshotProvider(cfg, logger)
	if err != nil {
		logger.Error("snapshot provider", slog.Any("error", err))
		os.Exit(1)
	}
	provider := dataset.NewCachedProvider(upstream, redisClient, cfg.SnapshotCacheTTL)
	loader := dataset.NewLoader(provider, logger, func(source dataset.Source) {
		metrics.ObserveFetchFailure(string(source))
	})

	profiles, err := dashboard.LoadProfiles(cfg.PagesFile)
	if err != nil {
		logger.Error("load page profiles", slog.Any("error", err))
		os.Exit(1)
	}
	dashboardService := dashboard.NewService(loader, profiles, logger, metrics.ObserveResolve)
	defer dashboardService.Close()

	pdfClient := report.NewClient(cfg.GotenbergURL, nil)
	var pdf dashboardhttp.PDFService
	if cfg.GotenbergURL != "" {
		pdf = export.NewPDFExporter(pdfClient)
	}
	dashboardHandler := dashboardhttp.NewHandler(logger, dashboardService, profiles.List(), templates, pdf, authHandler, csrfManager)
	reportHandler := report.NewHandler(pdfClient, logger)

	redisOpt, err := app.AsynqRedis(cfg)
	if err != nil {
		logger.Error("asynq redis options", slog.Any("error", err))
		os.Exit(1)
	}
	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("asynq inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpt)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("snapshots", cfg.SnapshotSource),
			slog.String("auth", cfg.AuthBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
