package models

import (
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
)

// Window is a time-of-day range on one weekday, as offsets from midnight
type Window struct {
	Weekday time.Weekday  `json:"weekday"`
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
}

// On materialises the window on the given day (midnight in the target location)
func (w Window) On(day time.Time) Interval {
	return Interval{Start: day.Add(w.Start), End: day.Add(w.End)}
}

// ActiveHours holds the allowed windows per task category
type ActiveHours struct {
	Windows map[constants.Category][]Window `json:"windows"`
	// MinUsefulGap is the smallest leftover gap per category that is still worth keeping
	MinUsefulGap map[constants.Category]time.Duration `json:"min_useful_gap,omitempty"`
	// Bands overrides the default preferred time-of-day band per category
	Bands map[constants.Category]constants.TimeBand `json:"bands,omitempty"`
}

// WindowsOn returns the category's windows for the weekday of day, materialised on that day
func (a ActiveHours) WindowsOn(cat constants.Category, day time.Time) []Interval {
	var out []Interval
	for _, w := range a.Windows[cat] {
		if w.Weekday == day.Weekday() {
			out = append(out, w.On(day))
		}
	}
	return out
}

// GapFor returns the minimum useful gap for a category
func (a ActiveHours) GapFor(cat constants.Category) time.Duration {
	if g, ok := a.MinUsefulGap[cat]; ok && g > 0 {
		return g
	}
	return constants.DefaultMinUsefulGap
}

// BandFor returns the preferred band for a category
func (a ActiveHours) BandFor(cat constants.Category) constants.TimeBand {
	if b, ok := a.Bands[cat]; ok && b != "" {
		return b
	}
	return constants.DefaultCategoryBands[cat]
}

// Weights are the coefficients combining urgency, tier and slot quality
type Weights struct {
	Urgency    float64 `json:"urgency" yaml:"urgency"`
	Priority   float64 `json:"priority" yaml:"priority"`
	SlotFit    float64 `json:"slot_fit" yaml:"slot_fit"`
	SlotBand   float64 `json:"slot_band" yaml:"slot_band"`
	SlotEarly  float64 `json:"slot_early" yaml:"slot_early"`
	BumpMargin float64 `json:"bump_margin" yaml:"bump_margin"`
}

// DefaultWeights returns the weights used when no configuration is given
func DefaultWeights() Weights {
	return Weights{
		Urgency:    constants.DefaultWeightUrgency,
		Priority:   constants.DefaultWeightPriority,
		SlotFit:    constants.DefaultWeightSlotFit,
		SlotBand:   constants.DefaultWeightSlotBand,
		SlotEarly:  constants.DefaultWeightSlotEarly,
		BumpMargin: constants.DefaultBumpMargin,
	}
}

// Chunk is one contiguous placed portion of an item
type Chunk struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (c Chunk) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

// Outcome is the final state of one schedulable item
type Outcome struct {
	ItemID   string             `json:"item_id"`
	SourceID string             `json:"source_id"`
	Name     string             `json:"name"`
	Kind     constants.ItemKind `json:"kind"`
	// Date is set for occurrences of recurring items
	Date     string                  `json:"date,omitempty"`
	Status   constants.OutcomeStatus `json:"status"`
	Chunks   []Chunk                 `json:"chunks"`
	Required time.Duration           `json:"required"`
	Placed   time.Duration           `json:"placed"`
	Reason   constants.Reason        `json:"reason,omitempty"`
	Score    float64                 `json:"score"`
	Bumped   bool                    `json:"bumped,omitempty"`
}

// Stats summarises a run
type Stats struct {
	Items       int `json:"items"`
	Placed      int `json:"placed"`
	Partial     int `json:"partial"`
	Unscheduled int `json:"unscheduled"`
	Bumps       int `json:"bumps"`
	Chunks      int `json:"chunks"`
	Breaks      int `json:"breaks"`
}

// Breaks inserts a rest after Interval of back-to-back work
type Breaks struct {
	Enabled  bool          `json:"enabled"`
	Duration time.Duration `json:"duration"`
	Interval time.Duration `json:"interval"`
}

// LogEntry records one scheduling decision in the order it was made
type LogEntry struct {
	Decision constants.Decision `json:"decision"`
	ItemID   string             `json:"item_id,omitempty"`
	Message  string             `json:"message"`
}

// ScheduleResult is produced once per run and not mutated afterwards
type ScheduleResult struct {
	Horizon  Horizon    `json:"horizon"`
	Outcomes []Outcome  `json:"outcomes"`
	Busy     []Interval `json:"busy"`
	Breaks   []Interval `json:"breaks,omitempty"`
	Stats    Stats      `json:"stats"`
	Log      []LogEntry `json:"log"`
	// Warnings are one line per item that did not fit and per truncated search
	Warnings []string `json:"warnings,omitempty"`
}

// Outcome returns the outcome for an item ID
func (r ScheduleResult) Outcome(id string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.ItemID == id {
			return o, true
		}
	}
	return Outcome{}, false
}
