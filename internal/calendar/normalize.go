package calendar

import (
	"fmt"

	"github.com/julianstephens/daylit-planner/internal/models"
)

// Normalize builds the initial timeline from locked events.
// Intervals are clipped to the horizon, cut at midnight, and merged when they touch or overlap.
func Normalize(locked []models.Event, horizon models.Horizon) (*BusyTimeline, error) {
	tl := NewTimeline(horizon.Start.Location())

	var pieces []models.Interval
	for _, ev := range locked {
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("%w: event %q ends at %s, not after its start %s",
				ErrInvalidInterval, ev.ID, ev.End, ev.Start)
		}
		clipped := ev.Interval().Intersect(horizon.Interval())
		if clipped.Empty() {
			continue
		}
		pieces = append(pieces, clipped)
	}

	for _, iv := range merge(pieces) {
		for _, p := range tl.splitByDay(iv) {
			tl.insert(Entry{Interval: p, Locked: true})
		}
	}
	return tl, nil
}

// merge coalesces touching or overlapping intervals
func merge(ivs []models.Interval) []models.Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := make([]models.Interval, len(ivs))
	copy(sorted, ivs)
	sortIntervals(sorted)

	out := []models.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
