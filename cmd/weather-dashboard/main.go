package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/events"
	"github.com/i474232898/weather-dashboard/internal/logging"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/tracing"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	shutdownTracing, err := tracing.Setup(cfg.ServiceName, cfg.ZipkinEndpoint)
	if err != nil {
		logger.Fatalf("failed to set up tracing: %v", err)
	}

	// Shared HTTP client for outbound Open-Meteo calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// One provider serves geocoding, forecasts and air quality, each endpoint
	// behind its own circuit breaker.
	openMeteo := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoConfig{
		GeocodingURL:    cfg.GeocodingURL,
		ForecastURL:     cfg.ForecastURL,
		AirQualityURL:   cfg.AirQualityURL,
		RateLimit:       cfg.RateLimit,
		MaxRetries:      cfg.MaxRetries,
		BreakerFailures: uint32(cfg.BreakerFailures),
	})
	client := weather.NewClient(openMeteo, openMeteo, openMeteo, logger)

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		logger.Fatalf("failed to open %s storage: %v", cfg.StorageBackend, err)
	}
	defer closeKV()

	locations := store.NewLocationStore(kv, logger)
	status := locations.Load(context.Background())
	logger.Infow("saved locations loaded", "status", status, "count", len(locations.List()))

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Fatalf("failed to create kafka producer: %v", err)
		}
		defer producer.Close()
		unsubscribe := events.PublishLocationChanges(locations, producer)
		defer unsubscribe()
	}

	// Snapshot history with configured retention.
	snapshots := store.NewMemoryStore(cfg.SnapshotMaxHistory, cfg.SnapshotMaxAge)

	// Scheduler that periodically refreshes saved locations.
	sched := scheduler.New(locations, client, snapshots, cfg.RefreshInterval, logger)
	if err := sched.Start(); err != nil {
		logger.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// API routes.
	httpapi.RegisterRoutes(app, client, locations, snapshots)

	go func() {
		logger.Infof("listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("error during shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Errorf("error flushing traces: %v", err)
	}
}

// openKV builds the durable mirror for saved locations. The "none" backend
// yields a nil KV, which the location store treats as storage unavailable.
func openKV(cfg *config.AppConfig) (store.KV, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case "none":
		return nil, noop, nil
	case "memory":
		return store.NewMemoryKV(), noop, nil
	case "file":
		kv, err := store.NewFileKV(cfg.StorageDir)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return store.NewRedisKV(client, "weather-dashboard:"), func() { client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
