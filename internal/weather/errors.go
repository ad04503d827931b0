package weather

import "errors"

var (
	// ErrLookupFailure is returned when the geocoding request fails.
	ErrLookupFailure = errors.New("location lookup failed")
	// ErrForecastFailure is returned when the primary forecast request fails.
	ErrForecastFailure = errors.New("forecast unavailable")
	// ErrEnrichmentUnavailable marks a failed air-quality request. It is only logged.
	ErrEnrichmentUnavailable = errors.New("air quality enrichment unavailable")
	// ErrPersistenceCorrupt marks saved data that could not be parsed. It is only logged.
	ErrPersistenceCorrupt = errors.New("persisted locations are corrupt")
	// ErrPersistenceWrite is returned when a write-through to durable storage fails.
	ErrPersistenceWrite = errors.New("failed to persist locations")
)
