package weather

import (
	"context"
	"fmt"
	"strings"
)

// searchResultCount is how many geocoding candidates are requested per query.
const searchResultCount = 5

// Client answers location searches and forecast requests against the
// configured sources. It holds no state of its own between calls.
type Client struct {
	geocoder   Geocoder
	forecasts  ForecastSource
	airQuality AirQualitySource
	logger     Logger
}

// NewClient creates a new Client. airQuality may be nil, in which case
// forecasts are never enriched.
func NewClient(geocoder Geocoder, forecasts ForecastSource, airQuality AirQualitySource, logger Logger) *Client {
	return &Client{
		geocoder:   geocoder,
		forecasts:  forecasts,
		airQuality: airQuality,
		logger:     logger,
	}
}

// SearchLocation returns up to five candidate locations for query. A query
// with no matches yields an empty slice, not an error.
func (c *Client) SearchLocation(ctx context.Context, query string) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Location{}, nil
	}

	results, err := c.geocoder.Search(ctx, query, searchResultCount)
	if err != nil {
		c.logger.Errorf("error searching location %q: %v", query, err)
		return nil, fmt.Errorf("%w: %w", ErrLookupFailure, err)
	}
	if results == nil {
		results = []Location{}
	}
	return results, nil
}

// GetForecast fetches the forecast for a coordinate pair and tries to enrich
// it with air-quality readings. Enrichment failures never fail the call.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) (ForecastResult, error) {
	forecast, err := c.forecasts.FetchForecast(ctx, lat, lon)
	if err != nil {
		c.logger.Errorf("error fetching forecast for %f,%f: %v", lat, lon, err)
		return ForecastResult{}, fmt.Errorf("%w: %w", ErrForecastFailure, err)
	}

	status, err := c.enrich(ctx, lat, lon, &forecast)
	if err != nil {
		c.logger.Warnf("air quality data not available for %f,%f: %v", lat, lon, err)
	}

	return ForecastResult{
		Forecast:   forecast,
		Enrichment: status,
	}, nil
}

func (c *Client) enrich(ctx context.Context, lat, lon float64, forecast *Forecast) (Enrichment, error) {
	if c.airQuality == nil {
		return EnrichmentSkipped, nil
	}

	aq, err := c.airQuality.FetchAirQuality(ctx, lat, lon)
	if err != nil {
		return EnrichmentUnavailable, fmt.Errorf("%w: %w", ErrEnrichmentUnavailable, err)
	}
	if aq.Current == nil {
		return EnrichmentSkipped, nil
	}

	MergeAirQuality(&forecast.Current, *aq.Current)
	return EnrichmentApplied, nil
}
