package models

import (
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
)

// Recurrence describes how a task or event repeats
type Recurrence struct {
	Frequency  constants.Frequency `json:"frequency"`
	Interval   int                 `json:"interval,omitempty"`
	Until      *time.Time          `json:"until,omitempty"`
	Count      int                 `json:"count,omitempty"`
	Weekdays   []time.Weekday      `json:"weekdays,omitempty"`
	Exclusions []time.Time         `json:"exclusions,omitempty"` // dates, time of day ignored
	Completed  []time.Time         `json:"completed,omitempty"`  // dates, time of day ignored
}

// Excludes reports whether the given date is on the rule's exclusion list
func (r Recurrence) Excludes(t time.Time) bool {
	return containsDate(r.Exclusions, t)
}

// IsCompleted reports whether the occurrence on the given date was already done
func (r Recurrence) IsCompleted(t time.Time) bool {
	return containsDate(r.Completed, t)
}

func containsDate(dates []time.Time, t time.Time) bool {
	y, m, d := t.Date()
	for _, dt := range dates {
		dy, dm, dd := dt.In(t.Location()).Date()
		if dy == y && dm == m && dd == d {
			return true
		}
	}
	return false
}

type Task struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Deadline      *time.Time             `json:"deadline,omitempty"` // nil for habits
	Duration      time.Duration          `json:"duration"`
	MinChunk      time.Duration          `json:"min_chunk"`
	MaxChunk      time.Duration          `json:"max_chunk"`
	Category      constants.Category     `json:"category"`
	Priority      constants.PriorityTier `json:"priority"`
	Recurrence    *Recurrence            `json:"recurrence,omitempty"`
	Locked        bool                   `json:"locked"`
	CreatedAt     time.Time              `json:"created_at,omitzero"`
	EarliestStart *time.Time             `json:"earliest_start,omitempty"`
	LatestEnd     *time.Time             `json:"latest_end,omitempty"`
	PreferredBand constants.TimeBand     `json:"preferred_band,omitempty"`
}

// IsHabit reports whether the task has no deadline and therefore never goes overdue
func (t Task) IsHabit() bool {
	return t.Deadline == nil
}

type Event struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Start      time.Time              `json:"start"`
	End        time.Time              `json:"end"`
	Locked     bool                   `json:"locked"`
	Category   constants.Category     `json:"category"`
	Priority   constants.PriorityTier `json:"priority"`
	Recurrence *Recurrence            `json:"recurrence,omitempty"`
	CreatedAt  time.Time              `json:"created_at,omitzero"`
}

// Interval returns the event's [Start, End) interval
func (e Event) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// Occurrence is one concrete dated instance of a recurring task or event
type Occurrence struct {
	ID       string    `json:"id"`
	SourceID string    `json:"source_id"`
	Index    int       `json:"index"`
	Start    time.Time `json:"start"`
	// Previous is when the rule fired before this occurrence, if it did
	Previous  *time.Time `json:"previous,omitempty"`
	Completed bool       `json:"completed,omitempty"`
	Skipped   bool       `json:"skipped,omitempty"`
}

// Date returns the occurrence's calendar date formatted as YYYY-MM-DD
func (o Occurrence) Date() string {
	return o.Start.Format(constants.DateFormat)
}
