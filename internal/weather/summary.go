package weather

import "time"

// DaySummary is the display form of one daily forecast entry.
type DaySummary struct {
	Date           string  `json:"date"`
	Label          string  `json:"label"`
	Icon           string  `json:"icon"`
	Description    string  `json:"description"`
	TemperatureMax float64 `json:"temperatureMax"`
	TemperatureMin float64 `json:"temperatureMin"`
	Sunrise        string  `json:"sunrise,omitempty"`
	Sunset         string  `json:"sunset,omitempty"`
}

// Summary is the display form of a forecast's headline values.
type Summary struct {
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Date        string       `json:"date,omitempty"`
	Time        string       `json:"time,omitempty"`
	Days        []DaySummary `json:"days"`
}

// Summarize maps a forecast onto icons, descriptions and day labels relative to now.
func Summarize(f Forecast, now time.Time) Summary {
	loc := forecastLocation(f)
	isDay := f.Current.Daytime()

	s := Summary{
		Icon:        WeatherIcon(f.Current.WeatherCode, isDay),
		Description: WeatherDescription(f.Current.WeatherCode),
		Days:        make([]DaySummary, 0, len(f.Daily.Time)),
	}
	if ts, err := ParseTimestamp(f.Current.Time, loc); err == nil {
		s.Date = FormatDate(ts)
		s.Time = FormatTime(ts)
	}

	for i, day := range f.Daily.Time {
		ts, err := ParseTimestamp(day, loc)
		if err != nil {
			continue
		}
		code := valueAt(f.Daily.WeatherCode, i)
		d := DaySummary{
			Date:           day,
			Label:          FormatDayRelative(ts, now),
			Icon:           WeatherIcon(code, true),
			Description:    WeatherDescription(code),
			TemperatureMax: valueAt(f.Daily.TemperatureMax, i),
			TemperatureMin: valueAt(f.Daily.TemperatureMin, i),
		}
		if sr, err := ParseTimestamp(valueAt(f.Daily.Sunrise, i), loc); err == nil {
			d.Sunrise = FormatTime(sr)
		}
		if ss, err := ParseTimestamp(valueAt(f.Daily.Sunset, i), loc); err == nil {
			d.Sunset = FormatTime(ss)
		}
		s.Days = append(s.Days, d)
	}

	return s
}

// forecastLocation resolves the zone the forecast's local timestamps are in.
func forecastLocation(f Forecast) *time.Location {
	if f.Timezone != "" {
		if loc, err := time.LoadLocation(f.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone(f.TimezoneAbbreviation, f.UTCOffsetSeconds)
}

func valueAt[T any](values []T, i int) T {
	var zero T
	if i < 0 || i >= len(values) {
		return zero
	}
	return values[i]
}
