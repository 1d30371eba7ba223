package forecast

import "fmt"

// Lookup returns the day whose date equals date exactly.
func (s Series) Lookup(date string) (Day, error) {
	for _, day := range s {
		if day.Date == date {
			return day, nil
		}
	}
	return Day{}, fmt.Errorf("%w: %s", ErrDateNotFound, date)
}

// Contains reports whether date is one of the series dates.
func (s Series) Contains(date string) bool {
	_, err := s.Lookup(date)
	return err == nil
}

// Dates lists the series dates in provider order.
func (s Series) Dates() []string {
	out := make([]string, 0, len(s))
	for _, day := range s {
		out = append(out, day.Date)
	}
	return out
}

// Range returns the earliest and latest dates, used to bound a date picker.
// ISO dates compare correctly as strings.
func (s Series) Range() (first, last string) {
	for _, day := range s {
		if first == "" || day.Date < first {
			first = day.Date
		}
		if last == "" || day.Date > last {
			last = day.Date
		}
	}
	return first, last
}
