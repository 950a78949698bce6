package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/minipm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.MigrationsURL != "file://migrations" {
		t.Errorf("MigrationsURL = %q, want default", cfg.MigrationsURL)
	}
	// Must match the consumer's default topic in internal/ingest.
	if cfg.KafkaTopic != "integration.events" {
		t.Errorf("KafkaTopic = %q, want %q", cfg.KafkaTopic, "integration.events")
	}
	if cfg.WebhookMaxAttempts != 3 {
		t.Errorf("WebhookMaxAttempts = %d, want 3", cfg.WebhookMaxAttempts)
	}
	if cfg.WebhookSweepBatchSize != 100 {
		t.Errorf("WebhookSweepBatchSize = %d, want 100", cfg.WebhookSweepBatchSize)
	}
	if got := cfg.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", got)
	}
	if got := cfg.SweepInterval(); got != time.Minute {
		t.Errorf("SweepInterval() = %v, want 1m", got)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without DATABASE_URL")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/minipm")
	os.Setenv("ADDR", ":9090")
	os.Setenv("WEBHOOK_MAX_ATTEMPTS", "5")
	os.Setenv("WEBHOOK_SWEEP_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.WebhookMaxAttempts != 5 {
		t.Errorf("WebhookMaxAttempts = %d, want 5", cfg.WebhookMaxAttempts)
	}
	if got := cfg.SweepInterval(); got != 30*time.Second {
		t.Errorf("SweepInterval() = %v, want 30s", got)
	}
}

func TestLoad_InvalidMaxAttempts(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/minipm")
	os.Setenv("WEBHOOK_MAX_ATTEMPTS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail with WEBHOOK_MAX_ATTEMPTS=0")
	}
}

func TestKafkaBrokersList(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    int
	}{
		{name: "empty", brokers: "", want: 0},
		{name: "single", brokers: "localhost:9092", want: 1},
		{name: "multiple with spaces", brokers: "a:9092, b:9092 ,c:9092", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{KafkaBrokers: tt.brokers}
			if got := cfg.KafkaBrokersList(); len(got) != tt.want {
				t.Errorf("KafkaBrokersList() = %v, want %d brokers", got, tt.want)
			}
		})
	}
}
