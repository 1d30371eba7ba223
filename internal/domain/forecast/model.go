package forecast

import "errors"

var (
	// ErrForecastUnavailable means the upstream payload carried no usable daily block.
	ErrForecastUnavailable = errors.New("forecast unavailable")
	// ErrDateNotFound means the requested date is not part of the current series.
	ErrDateNotFound = errors.New("date not found in forecast")
)

// Daily variables requested from the provider, in the order they are queried.
const (
	FieldTime                  = "time"
	FieldWeatherCode           = "weather_code"
	FieldTempMax               = "temperature_2m_max"
	FieldTempMin               = "temperature_2m_min"
	FieldHumidityMax           = "relative_humidity_2m_max"
	FieldHumidityMin           = "relative_humidity_2m_min"
	FieldWindSpeedMax          = "wind_speed_10m_max"
	FieldWindDirectionDominant = "wind_direction_10m_dominant"
)

// DailyFields is the daily query parameter sent upstream.
var DailyFields = []string{
	FieldWeatherCode,
	FieldTempMax,
	FieldTempMin,
	FieldHumidityMax,
	FieldHumidityMin,
	FieldWindSpeedMax,
	FieldWindDirectionDominant,
}

// Day is one calendar day of forecast readings.
type Day struct {
	Date                  string  `json:"date"`
	WeatherCode           int     `json:"weatherCode"`
	TempMax               float64 `json:"tempMax"`
	TempMin               float64 `json:"tempMin"`
	HumidityMax           float64 `json:"humidityMax"`
	HumidityMin           float64 `json:"humidityMin"`
	WindSpeedMax          float64 `json:"windSpeedMax"`
	WindDirectionDominant float64 `json:"windDirectionDominant"`
}

// Series holds forecast days in provider order. Dates are unique.
type Series []Day
