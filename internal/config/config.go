package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// HTTPTimeout bounds every outbound call (0 = transport default).
	HTTPTimeout time.Duration `validate:"gte=0"`

	// Open-Meteo endpoints; empty means the public hosts.
	GeocodingURL  string  `validate:"omitempty,url"`
	ForecastURL   string  `validate:"omitempty,url"`
	AirQualityURL string  `validate:"omitempty,url"`
	RateLimit     float64 `validate:"gte=0"` // requests per second (0 = unlimited)
	MaxRetries    int     `validate:"gte=0,lte=10"`
	// BreakerFailures opens an endpoint's breaker after that many consecutive
	// upstream failures (0 = never).
	BreakerFailures int `validate:"gte=0"`

	// Saved-location storage.
	StorageBackend string `validate:"oneof=none memory file redis"`
	StorageDir     string `validate:"required_if=StorageBackend file"`
	RedisURL       string `validate:"required_if=StorageBackend redis"`

	// RefreshInterval controls how often saved locations are refreshed (0 = never).
	RefreshInterval time.Duration `validate:"gte=0"`

	// Snapshot history retention.
	SnapshotMaxHistory int           `validate:"gte=0"` // max snapshots per location (0 = unlimited)
	SnapshotMaxAge     time.Duration `validate:"gte=0"` // max age of snapshots (0 = unlimited)

	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`

	ZipkinEndpoint string `validate:"omitempty,url"`
	ServiceName    string `validate:"required"`
}

var validate = validator.New()

// Load reads configuration from the environment, after applying a .env file
// when one exists.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "json"))

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0s"); err != nil {
		return nil, err
	}

	cfg.GeocodingURL = os.Getenv("OPENMETEO_GEOCODING_URL")
	cfg.ForecastURL = os.Getenv("OPENMETEO_FORECAST_URL")
	cfg.AirQualityURL = os.Getenv("OPENMETEO_AIR_QUALITY_URL")
	if v := os.Getenv("OPENMETEO_RATE_LIMIT"); v != "" {
		cfg.RateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPENMETEO_RATE_LIMIT: %w", err)
		}
	}
	cfg.MaxRetries = getenvInt("OPENMETEO_MAX_RETRIES", 0)
	cfg.BreakerFailures = getenvInt("OPENMETEO_BREAKER_FAILURES", 0)

	cfg.StorageBackend = strings.ToLower(getenvDefault("STORAGE_BACKEND", "memory"))
	cfg.StorageDir = getenvDefault("STORAGE_DIR", "data")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.SnapshotMaxHistory = getenvInt("SNAPSHOT_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.SnapshotMaxAge, err = getenvDuration("SNAPSHOT_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenvDefault("KAFKA_TOPIC", "weather.saved-locations")

	cfg.ZipkinEndpoint = os.Getenv("ZIPKIN_ENDPOINT")
	cfg.ServiceName = getenvDefault("SERVICE_NAME", "weather-dashboard")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
