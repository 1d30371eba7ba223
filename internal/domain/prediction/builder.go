package prediction

import (
	"strings"

	"github.com/yanqian/phytocast/internal/domain/forecast"
	"github.com/yanqian/phytocast/pkg/util"
)

// FromForecastDay builds the request from a forecast day's maxima. date is
// sent only when includeDate is set.
func FromForecastDay(day forecast.Day, date string, includeDate bool) Request {
	req := Request{
		Temperature: []float64{day.TempMax},
		Humidity:    []float64{day.HumidityMax},
		WindSpeed:   []float64{day.WindSpeedMax},
	}
	if includeDate {
		req.Date = strings.TrimSpace(date)
	}
	return req
}

// FromForm builds the request from user entered readings. Blank or non-numeric
// fields are sent as 0.
func FromForm(in FormInput, includeDate bool) Request {
	req := Request{
		Temperature: []float64{coerce(in.Temperature)},
		Humidity:    []float64{coerce(in.Humidity)},
		Wind:        []float64{coerce(in.Wind)},
		WindSpeed:   []float64{coerce(in.WindSpeed)},
		Ammonia:     []float64{coerce(in.Ammonia)},
		Phosphate:   []float64{coerce(in.Phosphate)},
		BOD:         []float64{coerce(in.BOD)},
	}
	if includeDate {
		req.Date = strings.TrimSpace(in.Date)
	}
	return req
}

func coerce(n Number) float64 {
	return util.CoerceFloat(string(n))
}
