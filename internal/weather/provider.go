package weather

import (
	"context"
	"time"
)

// Geocoder resolves a free-text place name into candidate locations.
type Geocoder interface {
	Search(ctx context.Context, query string, count int) ([]Location, error)
}

// ForecastSource fetches the primary forecast for a coordinate pair.
type ForecastSource interface {
	FetchForecast(ctx context.Context, lat, lon float64) (Forecast, error)
}

// AirQualitySource fetches current air-quality readings for a coordinate pair.
type AirQualitySource interface {
	FetchAirQuality(ctx context.Context, lat, lon float64) (AirQuality, error)
}

// SnapshotStore is the contract the in-memory snapshot history (and any future persistent store) must satisfy.
type SnapshotStore interface {
	SaveSnapshot(loc Location, snapshot ForecastSnapshot)
	GetLatest(loc Location) (ForecastSnapshot, error)
	GetRange(loc Location, from, to time.Time) ([]ForecastSnapshot, error)
	Retain(locs []Location)
}

// Logger is the observability sink for failures that are absorbed rather
// than returned. *zap.SugaredLogger satisfies it.
type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}
