package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const forecastBody = `{
	"latitude": 52.52,
	"longitude": 13.42,
	"timezone": "Europe/Berlin",
	"timezone_abbreviation": "CET",
	"utc_offset_seconds": 3600,
	"current_units": {"temperature_2m": "°C"},
	"current": {"time": "2024-03-10T14:00", "interval": 900, "temperature_2m": 11.2, "relative_humidity_2m": 71, "weather_code": 3, "is_day": 1, "pressure_msl": 1012.4},
	"hourly": {"time": ["2024-03-10T00:00", "2024-03-10T01:00"], "temperature_2m": [7.1, null], "weather_code": [3, 61]},
	"daily": {"time": ["2024-03-10", "2024-03-11"], "weather_code": [3, 61], "temperature_2m_max": [12.0, 9.5], "temperature_2m_min": [4.0, 3.1]}
}`

const airQualityBody = `{"current": {"time": "2024-03-10T14:00", "us_aqi": 41, "european_aqi": 22, "pm10": 14.2, "pm2_5": 8.3, "carbon_monoxide": 190, "nitrogen_dioxide": 11.5, "sulphur_dioxide": 1.4, "ozone": 61}}`

type upstream struct {
	server          *httptest.Server
	airQualityCode  int
	airQualityCalls atomic.Int32
	forecastCode    int

	mu        sync.Mutex
	lastQuery map[string]string
}

func newUpstream(t *testing.T, forecastCode, airQualityCode int) *upstream {
	t.Helper()
	u := &upstream{airQualityCode: airQualityCode, forecastCode: forecastCode}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		u.record(r)
		if r.URL.Query().Get("name") == "Nowhere" {
			w.Write([]byte(`{"generationtime_ms": 0.4}`))
			return
		}
		w.Write([]byte(`{"results": [{"id": 2950159, "name": "Berlin", "latitude": 52.52437, "longitude": 13.41053, "country_code": "DE", "country": "Germany", "admin1": "Land Berlin", "timezone": "Europe/Berlin", "population": 3426354}]}`))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		u.record(r)
		if u.forecastCode != http.StatusOK {
			w.WriteHeader(u.forecastCode)
			return
		}
		w.Write([]byte(forecastBody))
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, r *http.Request) {
		u.airQualityCalls.Add(1)
		if u.airQualityCode != http.StatusOK {
			w.WriteHeader(u.airQualityCode)
			return
		}
		w.Write([]byte(airQualityBody))
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) record(r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lastQuery = map[string]string{}
	for k := range r.URL.Query() {
		u.lastQuery[k] = r.URL.Query().Get(k)
	}
}

func (u *upstream) query(key string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastQuery[key]
}

func (u *upstream) provider() *OpenMeteoProvider {
	base := u.server.URL + "/v1"
	return NewOpenMeteoProvider(u.server.Client(), OpenMeteoConfig{
		GeocodingURL:  base,
		ForecastURL:   base,
		AirQualityURL: base,
	})
}

func TestSearch(t *testing.T) {
	u := newUpstream(t, http.StatusOK, http.StatusOK)
	p := u.provider()

	results, err := p.Search(context.Background(), "Berlin", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Berlin" || results[0].CountryCode != "DE" {
		t.Fatalf("unexpected results: %+v", results)
	}

	want := map[string]string{"name": "Berlin", "count": "5", "language": "en", "format": "json"}
	for k, v := range want {
		if u.query(k) != v {
			t.Errorf("query %s: expected %q, got %q", k, v, u.query(k))
		}
	}

	results, err = p.Search(context.Background(), "Nowhere", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestSearchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(server.Client(), OpenMeteoConfig{GeocodingURL: server.URL})
	if _, err := p.Search(context.Background(), "Berlin", 5); !errors.Is(err, errUnexpected) {
		t.Fatalf("expected unexpected status error, got %v", err)
	}
}

func TestFetchForecast(t *testing.T) {
	u := newUpstream(t, http.StatusOK, http.StatusOK)
	p := u.provider()

	f, err := p.FetchForecast(context.Background(), 52.52, 13.42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Current.Temperature != 11.2 || f.Current.WeatherCode != 3 || !f.Current.Daytime() {
		t.Fatalf("unexpected current block: %+v", f.Current)
	}
	if len(f.Hourly.Time) != 2 || len(f.Daily.TemperatureMax) != 2 {
		t.Fatalf("unexpected series: %+v %+v", f.Hourly, f.Daily)
	}
	if u.query("timezone") != "auto" || u.query("latitude") != "52.52" {
		t.Fatalf("unexpected query: timezone=%q latitude=%q", u.query("timezone"), u.query("latitude"))
	}
	for _, key := range []string{"current", "hourly", "daily"} {
		if u.query(key) == "" {
			t.Fatalf("expected %s variable list in query", key)
		}
	}
}

func TestGetForecastEnriched(t *testing.T) {
	u := newUpstream(t, http.StatusOK, http.StatusOK)
	p := u.provider()
	client := weather.NewClient(p, p, p, zap.NewNop().Sugar())

	res, err := client.GetForecast(context.Background(), 52.52, 13.42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Enrichment != weather.EnrichmentApplied {
		t.Fatalf("expected applied enrichment, got %q", res.Enrichment)
	}
	cur := res.Forecast.Current
	if cur.AirQuality == nil || *cur.AirQuality != 41 {
		t.Fatalf("expected US AQI 41, got %v", cur.AirQuality)
	}
	if cur.PM25 == nil || *cur.PM25 != 8.3 || cur.Ozone == nil || *cur.Ozone != 61 {
		t.Fatalf("expected pollutants to be merged: %+v", cur)
	}
}

func TestGetForecastAirQualityServerError(t *testing.T) {
	u := newUpstream(t, http.StatusOK, http.StatusInternalServerError)
	p := u.provider()

	primary, err := p.FetchForecast(context.Background(), 52.52, 13.42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client := weather.NewClient(p, p, p, zap.NewNop().Sugar())
	res, err := client.GetForecast(context.Background(), 52.52, 13.42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Enrichment != weather.EnrichmentUnavailable {
		t.Fatalf("expected unavailable enrichment, got %q", res.Enrichment)
	}
	cur := res.Forecast.Current
	if cur.AirQuality != nil || cur.PM10 != nil || cur.PM25 != nil || cur.Ozone != nil {
		t.Fatalf("expected no air-quality fields, got %+v", cur)
	}
	if cur != primary.Current {
		t.Fatalf("expected primary payload unchanged:\n got %+v\nwant %+v", cur, primary.Current)
	}
	if u.airQualityCalls.Load() != 1 {
		t.Fatalf("expected a single air-quality attempt, got %d", u.airQualityCalls.Load())
	}
}

func TestGetForecastPrimaryServerError(t *testing.T) {
	u := newUpstream(t, http.StatusServiceUnavailable, http.StatusOK)
	p := u.provider()
	client := weather.NewClient(p, p, p, zap.NewNop().Sugar())

	_, err := client.GetForecast(context.Background(), 52.52, 13.42)
	if !errors.Is(err, weather.ErrForecastFailure) {
		t.Fatalf("expected ErrForecastFailure, got %v", err)
	}
	if !errors.Is(err, errServerError) {
		t.Fatalf("expected server error cause, got %v", err)
	}
	if u.airQualityCalls.Load() != 0 {
		t.Fatalf("air quality should not be requested after a failed forecast")
	}
}

func TestRetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(server.Client(), OpenMeteoConfig{GeocodingURL: server.URL, MaxRetries: 1})
	p.httpCfg.Backoff.InitialInterval = 1

	if _, err := p.Search(context.Background(), "Berlin", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(server.Client(), OpenMeteoConfig{GeocodingURL: server.URL})
	if _, err := p.Search(context.Background(), "Berlin", 5); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

// flakyServer answers /v1/forecast and /v1/air-quality. Each endpoint fails
// with its configured status for the first N calls and succeeds afterwards.
type flakyServer struct {
	server *httptest.Server

	forecastCalls   atomic.Int32
	airQualityCalls atomic.Int32
}

func newFlakyServer(t *testing.T, forecastCode, forecastFailures, airQualityCode, airQualityFailures int) *flakyServer {
	t.Helper()
	f := &flakyServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		if int(f.forecastCalls.Add(1)) <= forecastFailures {
			w.WriteHeader(forecastCode)
			return
		}
		w.Write([]byte(forecastBody))
	})
	mux.HandleFunc("/v1/air-quality", func(w http.ResponseWriter, r *http.Request) {
		if int(f.airQualityCalls.Add(1)) <= airQualityFailures {
			w.WriteHeader(airQualityCode)
			return
		}
		w.Write([]byte(airQualityBody))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *flakyServer) provider(breakerFailures uint32) *OpenMeteoProvider {
	base := f.server.URL + "/v1"
	return NewOpenMeteoProvider(f.server.Client(), OpenMeteoConfig{
		ForecastURL:     base,
		AirQualityURL:   base,
		BreakerFailures: breakerFailures,
	})
}

func TestBreakerDisabledByDefault(t *testing.T) {
	f := newFlakyServer(t, http.StatusOK, 0, http.StatusInternalServerError, 6)
	p := f.provider(0)
	client := weather.NewClient(p, p, p, zap.NewNop().Sugar())

	for i := 0; i < 6; i++ {
		res, err := client.GetForecast(context.Background(), 52.52, 13.42)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if res.Enrichment != weather.EnrichmentUnavailable {
			t.Fatalf("call %d: expected unavailable enrichment, got %q", i, res.Enrichment)
		}
	}

	res, err := client.GetForecast(context.Background(), 52.52, 13.42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Enrichment != weather.EnrichmentApplied {
		t.Fatalf("expected enrichment once air quality recovers, got %q", res.Enrichment)
	}
	if f.airQualityCalls.Load() != 7 {
		t.Fatalf("expected every call to reach air quality, got %d", f.airQualityCalls.Load())
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	f := newFlakyServer(t, http.StatusBadRequest, 6, http.StatusOK, 0)
	p := f.provider(2)

	for i := 0; i < 6; i++ {
		if _, err := p.FetchForecast(context.Background(), 52.52, 13.42); !errors.Is(err, errUnexpected) {
			t.Fatalf("call %d: expected unexpected status error, got %v", i, err)
		}
	}
	if _, err := p.FetchForecast(context.Background(), 52.52, 13.42); err != nil {
		t.Fatalf("expected recovery after client errors, got %v", err)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	f := newFlakyServer(t, http.StatusServiceUnavailable, 100, http.StatusOK, 0)
	p := f.provider(2)

	for i := 0; i < 2; i++ {
		if _, err := p.FetchForecast(context.Background(), 52.52, 13.42); !errors.Is(err, errServerError) {
			t.Fatalf("call %d: expected server error, got %v", i, err)
		}
	}
	if _, err := p.FetchForecast(context.Background(), 52.52, 13.42); !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if f.forecastCalls.Load() != 2 {
		t.Fatalf("expected the open breaker to short-circuit, got %d upstream calls", f.forecastCalls.Load())
	}

	// The air-quality breaker is independent.
	if _, err := p.FetchAirQuality(context.Background(), 52.52, 13.42); err != nil {
		t.Fatalf("unexpected air quality error: %v", err)
	}
}
