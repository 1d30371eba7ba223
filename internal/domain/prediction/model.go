package prediction

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/yanqian/phytocast/internal/domain/forecast"
	"github.com/yanqian/phytocast/internal/domain/selection"
)

// Request is the body posted to the prediction service. Every reading is a
// one element array; the service builds a data frame from it.
type Request struct {
	Temperature []float64 `json:"Temperature"`
	Humidity    []float64 `json:"Humidity"`
	Wind        []float64 `json:"Wind,omitempty"`
	WindSpeed   []float64 `json:"Wind Speed"`
	Ammonia     []float64 `json:"Ammonia (mg/L),omitempty"`
	Phosphate   []float64 `json:"Inorganic Phosphate (mg/L),omitempty"`
	BOD         []float64 `json:"BOD (mg/l),omitempty"`
	Date        string    `json:"Date,omitempty"`
}

// Number is a form value that also accepts a bare JSON number.
type Number string

// UnmarshalJSON keeps the literal text of numbers and strings alike.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*n = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	*n = Number(trimmed)
	return nil
}

// FormInput holds the direct numeric readings entered by a user.
type FormInput struct {
	Temperature Number `form:"temperature" json:"temperature"`
	Humidity    Number `form:"humidity" json:"humidity"`
	Wind        Number `form:"wind" json:"wind"`
	WindSpeed   Number `form:"wind_speed" json:"wind_speed"`
	Ammonia     Number `form:"ammonia" json:"ammonia"`
	Phosphate   Number `form:"phosphate" json:"phosphate"`
	BOD         Number `form:"bod" json:"bod"`
	Date        string `form:"date" json:"date"`
}

// RawResponse is the decoded JSON object returned by the prediction service.
type RawResponse map[string]any

// ResultKind tags the Result variant.
type ResultKind string

const (
	KindSingle       ResultKind = "single"
	KindMultiStation ResultKind = "multi_station"
	KindError        ResultKind = "error"
)

// Result is exactly one of Single, MultiStation or Failure, selected by Kind.
type Result struct {
	Kind         ResultKind    `json:"kind"`
	Single       *Single       `json:"single,omitempty"`
	MultiStation *MultiStation `json:"multiStation,omitempty"`
	Failure      *Failure      `json:"error,omitempty"`
}

// Single is a one-station prediction. A nil Prediction means the service sent none.
type Single struct {
	Prediction *float64 `json:"prediction"`
	Status     string   `json:"status"`
}

// MultiStation carries per-station predictions.
type MultiStation struct {
	Status   string             `json:"status"`
	Stations map[string]Station `json:"stations"`
}

// Station is one monitoring station's prediction and parameter forecast.
type Station struct {
	Prediction *float64       `json:"prediction"`
	Forecast   map[string]any `json:"forecast"`
}

// Failure is a transport or service reported error.
type Failure struct {
	Message   string `json:"message"`
	Transport bool   `json:"transport"`
}

// Entry point names recorded with each prediction.
const (
	OriginForecast = "forecast"
	OriginForm     = "form"
)

// Record is one stored prediction.
type Record struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	Date      string    `json:"date,omitempty"`
	Request   Request   `json:"request"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportObject describes an uploaded export file.
type ExportObject struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	ETag        string `json:"etag,omitempty"`
}

// Config controls orchestration behavior.
type Config struct {
	IncludeDate   bool
	HistoryLimit  int
	ExportPrefix  string
	ExportMaxRows int
}

// ViewRequest asks for the forecast day of a session.
type ViewRequest struct {
	SessionID string
	Date      string
}

// DayView is a forecast day enriched for presentation.
type DayView struct {
	forecast.Day
	Condition forecast.Condition `json:"condition"`
}

// ViewResponse is returned when browsing the forecast.
type ViewResponse struct {
	Selection selection.Resolution `json:"selection"`
	Day       DayView              `json:"day"`
	Dates     []string             `json:"dates"`
	MinDate   string               `json:"minDate"`
	MaxDate   string               `json:"maxDate"`
}

// PredictRequest is a forecast-derived prediction submission.
type PredictRequest struct {
	SessionID string
	Date      string
}

// PredictResponse is returned by both entry points.
type PredictResponse struct {
	Selection *selection.Resolution `json:"selection,omitempty"`
	Day       *DayView              `json:"day,omitempty"`
	Request   Request               `json:"request"`
	Result    Result                `json:"result"`
}

// ExportResponse is returned by Export. Truncated reports that older history
// beyond the configured row cap was left out.
type ExportResponse struct {
	Object    ExportObject `json:"object"`
	Rows      int          `json:"rows"`
	Truncated bool         `json:"truncated"`
}

func newDayView(day forecast.Day) DayView {
	return DayView{Day: day, Condition: day.Condition()}
}
