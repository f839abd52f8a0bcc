package domain

// ForecastDay is one day of a weather forecast. Optional attributes stay nil when
// the upstream provider omits them; defaults are applied at aggregation time.
type ForecastDay struct {
	Date         string   `json:"date"`
	AvgTempC     *float64 `json:"avg_temp_c"`
	MaxTempC     *float64 `json:"max_temp_c"`
	MinTempC     *float64 `json:"min_temp_c"`
	ChanceOfRain *float64 `json:"chance_of_rain"`
	Condition    string   `json:"condition,omitempty"`
	AvgHumidity  *float64 `json:"avg_humidity"`
}

// Forecast is a short-range forecast for a city. A failed fetch yields an empty
// Days slice and a non-empty Error marker instead of a Go error.
type Forecast struct {
	Location string        `json:"location"`
	Country  string        `json:"country"`
	Days     []ForecastDay `json:"forecast"`
	Error    string        `json:"error,omitempty"`
}

// Degraded reports whether the forecast carries no usable data.
func (f Forecast) Degraded() bool {
	return len(f.Days) == 0
}

// WeatherSummary holds the forecast means used for scoring.
type WeatherSummary struct {
	AvgTempC     float64 `json:"avg_temp_c"`
	AvgHumidity  float64 `json:"avg_humidity"`
	ChanceOfRain float64 `json:"chance_of_rain"`
	Days         int     `json:"days"`
}

// Float returns a pointer to v. Handy for building forecast days.
func Float(v float64) *float64 {
	return &v
}
