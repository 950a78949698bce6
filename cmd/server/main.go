// API server: property management CRUD, maintenance triage, notification
// creation with inline webhook fan-out. Retries are swept by cmd/sweeper.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/api"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/config"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/notify"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/repository/postgres"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/resilience"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/triage"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/webhook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsURL); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	metrics := observability.NewMetrics("minipm")
	healthHandler := observability.NewHealthHandler("minipm-server")
	healthHandler.AddProbe("postgres", pool)

	webhookRepo := postgres.NewWebhookRepository(pool)

	httpClient := &http.Client{Timeout: cfg.Timeout()}

	dispatcherConfig := webhook.DefaultConfig()
	dispatcherConfig.Timeout = cfg.Timeout()

	policy := webhook.DefaultPolicy()
	policy.MaxAttempts = cfg.WebhookMaxAttempts

	dispatcher := webhook.NewDispatcher(
		dispatcherConfig,
		webhookRepo,
		httpClient,
		clock.RealClock{},
		policy,
		logger,
	).WithMetrics(metrics).WithResilience(
		resilience.NewMemoryRateLimiter(resilience.DefaultRateLimiterConfig()),
		resilience.NewMemoryCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	)

	notifySvc := notify.NewService(
		postgres.NewNotificationRepository(pool),
		dispatcher,
		clock.RealClock{},
		logger,
	).WithMetrics(metrics)

	var remote *triage.RemoteClassifier
	if cfg.ClassifierURL != "" {
		remote = triage.NewRemoteClassifier(cfg.ClassifierURL, cfg.ClassifierAPIKey, nil)
		logger.Info("remote triage classifier enabled", "url", cfg.ClassifierURL)
	}
	triageSvc := triage.NewService(remote, logger)

	handler := api.NewHandler(api.HandlerConfig{
		Properties:    postgres.NewPropertyRepository(pool),
		Units:         postgres.NewUnitRepository(pool),
		Leases:        postgres.NewLeaseRepository(pool),
		Maintenance:   postgres.NewMaintenanceRepository(pool),
		Notifications: postgres.NewNotificationRepository(pool),
		Webhooks:      webhookRepo,
		Triage:        triageSvc,
		Notify:        notifySvc,
		Clock:         clock.RealClock{},
		Logger:        logger,
		Metrics:       metrics,
	})

	router := api.NewRouter(api.RouterConfig{
		Handler:       handler,
		HealthHandler: healthHandler,
		Metrics:       metrics,
		Logger:        logger,
	})

	healthHandler.SetMigrated()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
}
