package models

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Empty reports whether the interval has no positive length
func (iv Interval) Empty() bool {
	return !iv.End.After(iv.Start)
}

// Overlaps reports whether two intervals share any time; touching intervals do not overlap
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely within iv
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Intersect returns the overlap of two intervals; the result may be empty
func (iv Interval) Intersect(other Interval) Interval {
	out := iv
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s-%s", iv.Start.Format("2006-01-02 15:04"), iv.End.Format("15:04"))
}

// Horizon is the date range a run schedules and expands recurrences within
type Horizon struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h Horizon) Interval() Interval {
	return Interval{Start: h.Start, End: h.End}
}

// Days returns midnight of every calendar day touched by the horizon
func (h Horizon) Days() []time.Time {
	var days []time.Time
	loc := h.Start.Location()
	y, m, d := h.Start.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for day.Before(h.End) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}
