package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yanqian/phytocast/pkg/util"
)

const (
	statusError           = "Error"
	defaultServiceMessage = "prediction service reported an error"
	malformedResults      = "prediction service returned malformed station results"
)

// TransportError is a failed exchange with the prediction service: the call
// could not be made, the status was not 2xx, or the body was not a JSON object.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	prefix := "prediction service " + e.Op
	if e.StatusCode != 0 {
		prefix = fmt.Sprintf("%s: status %d", prefix, e.StatusCode)
	}
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	case e.Body != "":
		return prefix + ": " + e.Body
	case e.StatusCode != 0:
		return prefix
	default:
		return prefix + " failed"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Normalize classifies a prediction service outcome. Rules apply in order:
// transport error, status "Error", a results mapping, otherwise a single prediction.
func Normalize(raw RawResponse, err error) Result {
	if err != nil {
		return failure(transportMessage(err), true)
	}

	status, _ := raw["status"].(string)
	if status == statusError {
		message, _ := raw["message"].(string)
		if strings.TrimSpace(message) == "" {
			message = defaultServiceMessage
		}
		return failure(message, false)
	}

	if results, ok := raw["results"]; ok {
		stations, ok := results.(map[string]any)
		if !ok {
			return failure(malformedResults, false)
		}
		out := make(map[string]Station, len(stations))
		for name, value := range stations {
			entry, _ := value.(map[string]any)
			forecast, _ := entry["forecast"].(map[string]any)
			if forecast == nil {
				forecast = map[string]any{}
			}
			out[name] = Station{
				Prediction: firstPrediction(entry["prediction"]),
				Forecast:   forecast,
			}
		}
		return Result{
			Kind:         KindMultiStation,
			MultiStation: &MultiStation{Status: status, Stations: out},
		}
	}

	return Result{
		Kind:   KindSingle,
		Single: &Single{Prediction: firstPrediction(raw["prediction"]), Status: status},
	}
}

func failure(message string, transport bool) Result {
	return Result{Kind: KindError, Failure: &Failure{Message: message, Transport: transport}}
}

func transportMessage(err error) string {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Error()
	}
	return "prediction service unreachable: " + err.Error()
}

func firstPrediction(value any) *float64 {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	switch items[0].(type) {
	case float64, json.Number:
		v := util.CoerceFloat(items[0])
		return &v
	default:
		return nil
	}
}
