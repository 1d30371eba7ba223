package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceFloat converts a decoded JSON or form value to float64.
// Missing, non-numeric and non-finite values become 0.
func CoerceFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NumberAt returns the value at index i of a decoded JSON array, coerced with CoerceFloat.
// A non-array or an out of range index yields 0.
func NumberAt(v any, i int) float64 {
	items, ok := v.([]any)
	if !ok || i < 0 || i >= len(items) {
		return 0
	}
	return CoerceFloat(items[i])
}
