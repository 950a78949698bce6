// Retry sweeper: claims webhook deliveries whose backoff has elapsed and
// re-attempts them. Runs separately from the API server so retry load
// scales independently; multiple instances coordinate through
// FOR UPDATE SKIP LOCKED claims. Also hosts the Kafka ingest worker
// when brokers are configured.
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
	"github.com/redis/go-redis/v9"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/config"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/ingest"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/notify"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/repository/postgres"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/resilience"
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

	webhookRepo := postgres.NewWebhookRepository(pool)
	metrics := observability.NewMetrics("minipm_sweeper")

	// Redis-backed rate limiting keeps the per-endpoint limit shared
	// across sweeper and server instances; fall back to in-memory.
	var rateLimiter resilience.RateLimiter
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opt)

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not available, using in-memory rate limiting", "error", err)
			rateLimiter = resilience.NewMemoryRateLimiter(resilience.DefaultRateLimiterConfig())
		} else {
			logger.Info("connected to Redis")
			rateLimiter = resilience.NewRedisRateLimiter(redisClient, resilience.DefaultRedisRateLimiterConfig(), logger)
		}
	} else {
		rateLimiter = resilience.NewMemoryRateLimiter(resilience.DefaultRateLimiterConfig())
	}

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
		rateLimiter,
		resilience.NewMemoryCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	)

	// Kafka ingest is optional; integration events become notifications
	// which fan out webhooks like any other.
	var consumer *ingest.Consumer
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		notifySvc := notify.NewService(
			postgres.NewNotificationRepository(pool),
			dispatcher,
			clock.RealClock{},
			logger,
		).WithMetrics(metrics)

		consumerConfig := ingest.DefaultConsumerConfig()
		consumerConfig.Brokers = brokers
		consumerConfig.Topic = cfg.KafkaTopic
		consumerConfig.GroupID = cfg.KafkaGroupID

		handler := ingest.NewHandler(notifySvc, logger).WithMetrics(metrics)
		consumer = ingest.NewConsumer(consumerConfig, handler, logger)
		consumer.Start(ctx)
	}

	sweeper := webhook.NewSweeper(webhookRepo, dispatcher, webhook.SweeperConfig{
		Interval:  cfg.SweepInterval(),
		BatchSize: cfg.WebhookSweepBatchSize,
	}, logger)

	go sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	sweeper.Stop()
	if consumer != nil {
		consumer.Stop()
	}
	cancel()

	// Give in-flight deliveries a moment to persist their outcome.
	time.Sleep(time.Second)

	logger.Info("shutdown complete")
}
