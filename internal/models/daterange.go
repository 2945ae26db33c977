package models

import "time"

const dateLayout = "2006-01-02"

// DateRange is a closed interval of calendar days. Both bounds are
// inclusive: a rental ending on a day blocks another starting that day.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps implements the closed-interval test:
// [s1,e1] and [s2,e2] overlap iff s1 <= e2 && s2 <= e1.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Days is the span in whole days between start and end.
func (r DateRange) Days() int {
	return int(Day(r.End).Sub(Day(r.Start)) / (24 * time.Hour))
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar day.
func Today() time.Time {
	return Day(time.Now())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
