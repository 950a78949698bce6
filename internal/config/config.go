// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g. :8080).
	Addr string `mapstructure:"ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// MigrationsURL is the migration source (e.g. file://migrations).
	MigrationsURL string `mapstructure:"MIGRATIONS_URL"`
	// RedisURL enables the distributed webhook rate limiter when set.
	RedisURL string `mapstructure:"REDIS_URL"`

	// KafkaBrokers is a comma-separated broker list; empty disables ingestion.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic integration events are consumed from.
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the ingest worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// WebhookTimeout bounds each delivery attempt (e.g. "30s").
	WebhookTimeout string `mapstructure:"WEBHOOK_TIMEOUT"`
	// WebhookMaxAttempts is the delivery attempt cap before a permanent failure.
	WebhookMaxAttempts int `mapstructure:"WEBHOOK_MAX_ATTEMPTS"`
	// WebhookSweepInterval is how often the sweeper claims due retries (e.g. "1m").
	WebhookSweepInterval string `mapstructure:"WEBHOOK_SWEEP_INTERVAL"`
	// WebhookSweepBatchSize caps retries claimed per sweep.
	WebhookSweepBatchSize int `mapstructure:"WEBHOOK_SWEEP_BATCH_SIZE"`

	// ClassifierURL enables the remote triage classifier when set.
	ClassifierURL string `mapstructure:"AI_CLASSIFIER_URL"`
	// ClassifierAPIKey is the bearer token for the remote classifier.
	ClassifierAPIKey string `mapstructure:"AI_CLASSIFIER_API_KEY"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATIONS_URL", "file://migrations")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "integration.events")
	v.SetDefault("KAFKA_GROUP_ID", "minipm-server")
	v.SetDefault("WEBHOOK_TIMEOUT", "30s")
	v.SetDefault("WEBHOOK_MAX_ATTEMPTS", 3)
	v.SetDefault("WEBHOOK_SWEEP_INTERVAL", "1m")
	v.SetDefault("WEBHOOK_SWEEP_BATCH_SIZE", 100)
	v.SetDefault("AI_CLASSIFIER_URL", "")
	v.SetDefault("AI_CLASSIFIER_API_KEY", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	if cfg.WebhookMaxAttempts < 1 {
		return nil, errors.New("config: WEBHOOK_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.WebhookSweepBatchSize < 1 {
		return nil, errors.New("config: WEBHOOK_SWEEP_BATCH_SIZE must be at least 1")
	}

	return &cfg, nil
}

// Timeout parses WebhookTimeout. Returns 30s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.WebhookTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// SweepInterval parses WebhookSweepInterval. Returns 1m if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.WebhookSweepInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// A non-empty list enables the Kafka ingest worker.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
