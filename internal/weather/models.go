package weather

import (
	"math"
	"strconv"
	"time"
)

// proximityThreshold is the per-axis distance in degrees under which two
// coordinates denote the same saved location.
const proximityThreshold = 0.001

// Location is a geocoded place. Only Name, Latitude and Longitude are
// required; the rest is whatever the geocoder returned.
type Location struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Latitude    float64 `json:"latitude" validate:"latitude"`
	Longitude   float64 `json:"longitude" validate:"longitude"`
	Elevation   float64 `json:"elevation,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Country     string  `json:"country,omitempty"`
	Admin1      string  `json:"admin1,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	Population  int64   `json:"population,omitempty"`
}

// SameAs reports whether l and other are within the proximity threshold on
// both axes. The axes are checked independently, not as a distance.
func (l Location) SameAs(other Location) bool {
	return math.Abs(l.Latitude-other.Latitude) < proximityThreshold &&
		math.Abs(l.Longitude-other.Longitude) < proximityThreshold
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return strconv.FormatFloat(l.Latitude, 'f', 3, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', 3, 64)
}

// Current is the current-conditions block of a forecast. The pointer fields
// at the bottom are only set by air-quality enrichment.
type Current struct {
	Time                string  `json:"time"`
	Interval            int     `json:"interval"`
	Temperature         float64 `json:"temperature_2m"`
	RelativeHumidity    float64 `json:"relative_humidity_2m"`
	WeatherCode         int     `json:"weather_code"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       float64 `json:"wind_direction_10m"`
	IsDay               int     `json:"is_day"`
	UVIndex             float64 `json:"uv_index"`
	Visibility          float64 `json:"visibility"`
	PressureMSL         float64 `json:"pressure_msl"`
	Precipitation       float64 `json:"precipitation"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	CloudCover          float64 `json:"cloud_cover"`
	WindGusts           float64 `json:"wind_gusts_10m"`

	AirQuality      *float64 `json:"air_quality,omitempty"`
	PM10            *float64 `json:"pm10,omitempty"`
	PM25            *float64 `json:"pm2_5,omitempty"`
	CarbonMonoxide  *float64 `json:"carbon_monoxide,omitempty"`
	NitrogenDioxide *float64 `json:"nitrogen_dioxide,omitempty"`
	SulphurDioxide  *float64 `json:"sulphur_dioxide,omitempty"`
	Ozone           *float64 `json:"ozone,omitempty"`
}

// Daytime reports whether the snapshot was taken during daylight.
func (c Current) Daytime() bool {
	return c.IsDay != 0
}

// Hourly holds parallel arrays indexed by hour offset.
type Hourly struct {
	Time                     []string  `json:"time"`
	Temperature              []float64 `json:"temperature_2m"`
	WeatherCode              []int     `json:"weather_code"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	Precipitation            []float64 `json:"precipitation"`
	ApparentTemperature      []float64 `json:"apparent_temperature"`
	CloudCover               []float64 `json:"cloud_cover"`
	RelativeHumidity         []float64 `json:"relative_humidity_2m"`
	WindSpeed                []float64 `json:"wind_speed_10m"`
	WindGusts                []float64 `json:"wind_gusts_10m"`
}

// Daily holds parallel arrays indexed by day offset.
type Daily struct {
	Time                   []string  `json:"time"`
	WeatherCode            []int     `json:"weather_code"`
	TemperatureMax         []float64 `json:"temperature_2m_max"`
	TemperatureMin         []float64 `json:"temperature_2m_min"`
	Sunrise                []string  `json:"sunrise"`
	Sunset                 []string  `json:"sunset"`
	UVIndexMax             []float64 `json:"uv_index_max"`
	PrecipitationSum       []float64 `json:"precipitation_sum"`
	ApparentTemperatureMax []float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin []float64 `json:"apparent_temperature_min"`
	WindSpeedMax           []float64 `json:"wind_speed_10m_max"`
	WindGustsMax           []float64 `json:"wind_gusts_10m_max"`
	WindDirectionDominant  []float64 `json:"wind_direction_10m_dominant"`
	SunshineDuration       []float64 `json:"sunshine_duration"`
}

// Forecast is the normalized forecast payload for one coordinate pair.
type Forecast struct {
	Latitude             float64           `json:"latitude"`
	Longitude            float64           `json:"longitude"`
	Elevation            float64           `json:"elevation"`
	GenerationTimeMs     float64           `json:"generationtime_ms"`
	UTCOffsetSeconds     int               `json:"utc_offset_seconds"`
	Timezone             string            `json:"timezone"`
	TimezoneAbbreviation string            `json:"timezone_abbreviation"`
	CurrentUnits         map[string]string `json:"current_units,omitempty"`
	Current              Current           `json:"current"`
	HourlyUnits          map[string]string `json:"hourly_units,omitempty"`
	Hourly               Hourly            `json:"hourly"`
	DailyUnits           map[string]string `json:"daily_units,omitempty"`
	Daily                Daily             `json:"daily"`
}

// AirQualityCurrent is the current block of an air-quality response.
type AirQualityCurrent struct {
	Time            string   `json:"time"`
	USAQI           *float64 `json:"us_aqi"`
	EuropeanAQI     *float64 `json:"european_aqi"`
	PM10            *float64 `json:"pm10"`
	PM25            *float64 `json:"pm2_5"`
	CarbonMonoxide  *float64 `json:"carbon_monoxide"`
	NitrogenDioxide *float64 `json:"nitrogen_dioxide"`
	SulphurDioxide  *float64 `json:"sulphur_dioxide"`
	Ozone           *float64 `json:"ozone"`
}

// AirQuality is an air-quality response. Current is nil when the upstream
// answered without a current block.
type AirQuality struct {
	Current *AirQualityCurrent `json:"current"`
}

// Enrichment describes what happened to the air-quality augmentation of a forecast.
type Enrichment string

const (
	EnrichmentApplied     Enrichment = "applied"
	EnrichmentSkipped     Enrichment = "skipped"
	EnrichmentUnavailable Enrichment = "unavailable"
)

// ForecastResult is what GetForecast hands back: the forecast plus the
// outcome of the enrichment step.
type ForecastResult struct {
	Forecast   Forecast   `json:"forecast"`
	Enrichment Enrichment `json:"enrichment"`
}

// ForecastSnapshot is a forecast recorded for a saved location at a point in time.
type ForecastSnapshot struct {
	Location  Location       `json:"location"`
	FetchedAt time.Time      `json:"fetchedAt"` // always UTC
	Result    ForecastResult `json:"result"`
}
