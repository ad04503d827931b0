package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("expected memory backend, got %s", cfg.StorageBackend)
	}
	if cfg.RefreshInterval != 15*time.Minute {
		t.Errorf("expected 15m refresh, got %s", cfg.RefreshInterval)
	}
	if cfg.MaxRetries != 0 || cfg.HTTPTimeout != 0 {
		t.Errorf("expected no retries and no timeout, got %d and %s", cfg.MaxRetries, cfg.HTTPTimeout)
	}
	if cfg.BreakerFailures != 0 {
		t.Errorf("expected breakers disabled, got %d", cfg.BreakerFailures)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("expected no kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("OPENMETEO_RATE_LIMIT", "2.5")
	t.Setenv("OPENMETEO_MAX_RETRIES", "3")
	t.Setenv("OPENMETEO_BREAKER_FAILURES", "5")
	t.Setenv("REFRESH_INTERVAL", "0s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.RateLimit != 2.5 || cfg.MaxRetries != 3 || cfg.BreakerFailures != 5 {
		t.Errorf("unexpected throttling: %v, %d, %d", cfg.RateLimit, cfg.MaxRetries, cfg.BreakerFailures)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("expected refresh disabled, got %s", cfg.RefreshInterval)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":     {"STORAGE_BACKEND": "sqlite"},
		"redis without url":   {"STORAGE_BACKEND": "redis"},
		"bad duration":        {"SNAPSHOT_MAX_AGE": "soon"},
		"bad log level":       {"LOG_LEVEL": "verbose"},
		"bad forecast url":    {"OPENMETEO_FORECAST_URL": "not a url"},
		"negative rate limit": {"OPENMETEO_RATE_LIMIT": "-1"},
		"negative breaker":    {"OPENMETEO_BREAKER_FAILURES": "-2"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
