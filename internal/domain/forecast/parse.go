package forecast

import (
	"strings"

	"github.com/yanqian/phytocast/pkg/util"
)

// Parse builds a Series from a decoded provider payload by zipping the parallel
// daily arrays on their index. The time array drives the length; the provider
// guarantees equal array lengths, and any value missing at an index is read as 0.
func Parse(raw map[string]any) (Series, error) {
	daily, ok := raw["daily"].(map[string]any)
	if !ok {
		return nil, ErrForecastUnavailable
	}
	dates, ok := daily[FieldTime].([]any)
	if !ok {
		return nil, ErrForecastUnavailable
	}

	series := make(Series, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for i, value := range dates {
		date, ok := value.(string)
		date = strings.TrimSpace(date)
		if !ok || date == "" {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}

		series = append(series, Day{
			Date:                  date,
			WeatherCode:           int(util.NumberAt(daily[FieldWeatherCode], i)),
			TempMax:               util.NumberAt(daily[FieldTempMax], i),
			TempMin:               util.NumberAt(daily[FieldTempMin], i),
			HumidityMax:           util.NumberAt(daily[FieldHumidityMax], i),
			HumidityMin:           util.NumberAt(daily[FieldHumidityMin], i),
			WindSpeedMax:          util.NumberAt(daily[FieldWindSpeedMax], i),
			WindDirectionDominant: util.NumberAt(daily[FieldWindDirectionDominant], i),
		})
	}
	return series, nil
}
