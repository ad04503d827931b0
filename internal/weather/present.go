package weather

import (
	"fmt"
	"time"
)

const (
	iconSun   = "☀️"
	iconMoon  = "🌙"
	iconCloud = "☁️"
)

// weatherIcons maps WMO weather codes to a glyph. Codes 0-2 are handled
// separately because they differ between day and night.
var weatherIcons = map[int]string{
	3:  iconCloud,
	45: "🌫️",
	48: "🌫️",
	51: "🌦️",
	53: "🌦️",
	55: "🌦️",
	56: "🌧️",
	57: "🌧️",
	61: "🌧️",
	63: "🌧️",
	65: "🌧️",
	66: "🌧️",
	67: "🌧️",
	71: "🌨️",
	73: "🌨️",
	75: "🌨️",
	77: "🌨️",
	80: "🌦️",
	81: "🌦️",
	82: "⛈️",
	85: "🌨️",
	86: "🌨️",
	95: "⛈️",
	96: "⛈️",
	99: "⛈️",
}

var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Cloudy",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Light rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// WeatherIcon returns a glyph for a weather code. Unknown codes fall back to
// the clear-sky glyph for the given time of day.
func WeatherIcon(code int, isDay bool) string {
	switch code {
	case 0:
		if isDay {
			return iconSun
		}
		return iconMoon
	case 1:
		if isDay {
			return "🌤️"
		}
		return iconCloud
	case 2:
		if isDay {
			return "⛅"
		}
		return iconCloud
	}

	if icon, ok := weatherIcons[code]; ok {
		return icon
	}
	if isDay {
		return iconSun
	}
	return iconMoon
}

// WeatherDescription returns a human readable description of a weather code.
// Codes outside the table are classified by range; the first match wins.
func WeatherDescription(code int) string {
	if desc, ok := weatherDescriptions[code]; ok {
		return desc
	}

	switch {
	case code >= 95 && code <= 99:
		return "Thunderstorm"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code >= 85 && code <= 86:
		return "Snow showers"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 45 && code <= 48:
		return "Fog"
	case code >= 1 && code <= 3:
		return "Cloudy"
	default:
		return "Clear sky"
	}
}

// Layouts used by Open-Meteo when timezone=auto: local wall time without offset.
var timestampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseTimestamp parses an Open-Meteo timestamp. Timestamps without an
// offset are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// FormatTime renders the clock time, e.g. "3:04 PM".
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatDate renders the full date, e.g. "Monday, January 2".
func FormatDate(t time.Time) string {
	return t.Format("Monday, January 2")
}

// FormatDay renders "Today", "Tomorrow" or the weekday name for t.
func FormatDay(t time.Time) string {
	return FormatDayRelative(t, time.Now())
}

// FormatDayRelative is FormatDay with an explicit reference time. Days are
// compared by calendar date in t's zone, not by elapsed hours.
func FormatDayRelative(t, now time.Time) string {
	now = now.In(t.Location())
	switch {
	case sameDate(t, now):
		return "Today"
	case sameDate(t, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return t.Weekday().String()
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
