package weather

// MergeAirQuality folds an air-quality reading into the current-conditions
// block of a forecast. Only fields that are still unset are filled in, so the
// primary forecast values are never overwritten.
func MergeAirQuality(cur *Current, aq AirQualityCurrent) {
	// Prefer the US index, fall back to the European one.
	index := aq.USAQI
	if index == nil {
		index = aq.EuropeanAQI
	}

	fill(&cur.AirQuality, index)
	fill(&cur.PM10, aq.PM10)
	fill(&cur.PM25, aq.PM25)
	fill(&cur.CarbonMonoxide, aq.CarbonMonoxide)
	fill(&cur.NitrogenDioxide, aq.NitrogenDioxide)
	fill(&cur.SulphurDioxide, aq.SulphurDioxide)
	fill(&cur.Ozone, aq.Ozone)
}

func fill(dst **float64, v *float64) {
	if *dst != nil || v == nil {
		return
	}
	val := *v
	*dst = &val
}
