package forecast

// Condition is a coarse description of a WMO weather code.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionCloudy       Condition = "cloudy"
	ConditionFog          Condition = "fog"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionUnknown      Condition = "unknown"
)

// Condition maps the day's weather code to a Condition.
func (d Day) Condition() Condition {
	return ConditionFor(d.WeatherCode)
}

// ConditionFor maps Open-Meteo WMO codes (simplified).
func ConditionFor(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case code >= 51 && code <= 57:
		return ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionThunderstorm
	default:
		return ConditionUnknown
	}
}
