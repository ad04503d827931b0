package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultGeocodingURL  = "https://geocoding-api.open-meteo.com/v1"
	DefaultForecastURL   = "https://api.open-meteo.com/v1"
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1"
)

// Variable sets requested from the forecast endpoint.
var (
	currentVars = []string{
		"temperature_2m", "relative_humidity_2m", "weather_code", "wind_speed_10m",
		"wind_direction_10m", "is_day", "uv_index", "visibility", "pressure_msl",
		"precipitation", "apparent_temperature", "cloud_cover", "wind_gusts_10m",
	}
	hourlyVars = []string{
		"temperature_2m", "weather_code", "precipitation_probability", "precipitation",
		"apparent_temperature", "cloud_cover", "relative_humidity_2m", "wind_speed_10m",
		"wind_gusts_10m",
	}
	dailyVars = []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min", "sunrise", "sunset",
		"uv_index_max", "precipitation_sum", "apparent_temperature_max",
		"apparent_temperature_min", "wind_speed_10m_max", "wind_gusts_10m_max",
		"wind_direction_10m_dominant", "sunshine_duration",
	}
	airQualityVars = []string{
		"us_aqi", "pm10", "pm2_5", "carbon_monoxide", "nitrogen_dioxide",
		"sulphur_dioxide", "ozone", "european_aqi",
	}
)

// OpenMeteoConfig holds endpoint and throttling settings. Empty URLs fall
// back to the public Open-Meteo hosts.
type OpenMeteoConfig struct {
	GeocodingURL  string
	ForecastURL   string
	AirQualityURL string
	// RateLimit is the maximum requests per second across all endpoints (0 = unlimited).
	RateLimit  float64
	MaxRetries int
	// BreakerFailures is the number of consecutive transport errors or 5xx
	// answers after which an endpoint's breaker opens (0 = never).
	BreakerFailures uint32
}

// OpenMeteoProvider implements weather.Geocoder, weather.ForecastSource and
// weather.AirQualitySource against the Open-Meteo APIs. Each endpoint has its
// own circuit breaker so a failing air-quality host cannot trip forecasts.
// Breakers only open when BreakerFailures is set.
type OpenMeteoProvider struct {
	name          string
	geocodingURL  string
	forecastURL   string
	airQualityURL string
	httpCfg       HTTPClientConfig

	geocodingCircuit  *gobreaker.CircuitBreaker
	forecastCircuit   *gobreaker.CircuitBreaker
	airQualityCircuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig) *OpenMeteoProvider {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &OpenMeteoProvider{
		name:          "openmeteo",
		geocodingURL:  strings.TrimRight(orDefault(cfg.GeocodingURL, DefaultGeocodingURL), "/"),
		forecastURL:   strings.TrimRight(orDefault(cfg.ForecastURL, DefaultForecastURL), "/"),
		airQualityURL: strings.TrimRight(orDefault(cfg.AirQualityURL, DefaultAirQualityURL), "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
			Limiter: limiter,
		},
		geocodingCircuit:  newCircuit("openmeteo-geocoding", cfg.BreakerFailures),
		forecastCircuit:   newCircuit("openmeteo-forecast", cfg.BreakerFailures),
		airQualityCircuit: newCircuit("openmeteo-air-quality", cfg.BreakerFailures),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Search looks up to count candidate locations for a place name.
func (p *OpenMeteoProvider) Search(ctx context.Context, query string, count int) ([]weather.Location, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(count))
	values.Set("language", "en")
	values.Set("format", "json")

	var payload struct {
		Results []weather.Location `json:"results"`
	}
	if err := p.getJSON(ctx, p.geocodingCircuit, p.geocodingURL+"/search", values, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// FetchForecast fetches the current, hourly and daily blocks for a coordinate pair.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	values := coordinates(lat, lon)
	values.Set("current", strings.Join(currentVars, ","))
	values.Set("hourly", strings.Join(hourlyVars, ","))
	values.Set("daily", strings.Join(dailyVars, ","))
	values.Set("timezone", "auto")

	var forecast weather.Forecast
	if err := p.getJSON(ctx, p.forecastCircuit, p.forecastURL+"/forecast", values, &forecast); err != nil {
		return weather.Forecast{}, err
	}
	return forecast, nil
}

// FetchAirQuality fetches current air-quality readings for a coordinate pair.
func (p *OpenMeteoProvider) FetchAirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	values := coordinates(lat, lon)
	values.Set("current", strings.Join(airQualityVars, ","))
	values.Set("timezone", "auto")

	var aq weather.AirQuality
	if err := p.getJSON(ctx, p.airQualityCircuit, p.airQualityURL+"/air-quality", values, &aq); err != nil {
		return weather.AirQuality{}, err
	}
	return aq, nil
}

func (p *OpenMeteoProvider) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, endpoint string, values url.Values, out interface{}) error {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?%s", endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, cb, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", cb.Name(), err)
	}
	return nil
}

func coordinates(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	return values
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

var (
	_ weather.Geocoder         = (*OpenMeteoProvider)(nil)
	_ weather.ForecastSource   = (*OpenMeteoProvider)(nil)
	_ weather.AirQualitySource = (*OpenMeteoProvider)(nil)
)
