package util

import "time"

// DateLayout is the calendar date format used by the forecast provider and the prediction service.
const DateLayout = "2006-01-02"

// Tomorrow returns the calendar date following now in loc.
func Tomorrow(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).AddDate(0, 0, 1).Format(DateLayout)
}
