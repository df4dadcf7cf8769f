package constants

import "time"

// Category selects the active-hours window a task is placed in
type Category string

// PriorityTier is the explicit priority of a task (1 = low, 4 = critical)
type PriorityTier int

// Frequency is the unit of a recurrence rule
type Frequency string

// Reason explains why an item was not (fully) scheduled
type Reason string

// TimeBand is a named time-of-day range
type TimeBand string

// OutcomeStatus is the terminal state of an item in a run
type OutcomeStatus string

// ItemKind distinguishes tasks from flexible events in a result
type ItemKind string

// Decision labels one entry of a run's decision log
type Decision string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryMeeting  Category = "meeting"

	PriorityLow      PriorityTier = 1
	PriorityNormal   PriorityTier = 2
	PriorityHigh     PriorityTier = 3
	PriorityCritical PriorityTier = 4

	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"

	ReasonNoCapacity     Reason = "no_capacity_before_deadline"
	ReasonMinChunk       Reason = "violates_min_chunk"
	ReasonBlockedByLocks Reason = "blocked_by_locked_events"

	BandMorning   TimeBand = "morning"
	BandAfternoon TimeBand = "afternoon"
	BandEvening   TimeBand = "evening"
	BandNight     TimeBand = "night"

	StatusPlaced      OutcomeStatus = "placed"
	StatusPartial     OutcomeStatus = "partial"
	StatusUnscheduled OutcomeStatus = "unscheduled"

	KindTask  ItemKind = "task"
	KindEvent ItemKind = "event"

	DecisionSeeded      Decision = "seeded"
	DecisionPlaced      Decision = "placed"
	DecisionBumped      Decision = "bumped"
	DecisionPartial     Decision = "partial"
	DecisionUnscheduled Decision = "unscheduled"
	DecisionTruncated   Decision = "truncated"
	DecisionBreak       Decision = "break"
)

const (
	// TierScale turns a priority tier into its base score (critical = 4000)
	TierScale = 1000.0

	// UrgencyScale is the urgency term when remaining work equals half the time left
	UrgencyScale = 1000.0

	// UrgencyCap is the urgency term for overdue or zero-slack items
	UrgencyCap = 5000.0

	DefaultWeightUrgency   = 1.0
	DefaultWeightPriority  = 1.0
	DefaultWeightSlotFit   = 100.0
	DefaultWeightSlotBand  = 10.0
	DefaultWeightSlotEarly = 1.0

	// DefaultBumpMargin is half a priority tier
	DefaultBumpMargin = 500.0

	DefaultMinUsefulGap = 15 * time.Minute

	// Chunk bound defaults applied by the adapter when a host omits them
	DefaultMinChunkFloor   = 15 * time.Minute
	DefaultMaxChunkCeiling = 180 * time.Minute

	DefaultBreakDuration = 15 * time.Minute
	DefaultBreakInterval = 90 * time.Minute
	// BreakResetGap is the idle time that counts as a rest and restarts the work tally
	BreakResetGap = 30 * time.Minute
)

// Bands maps each time band to its [start, end) offset from midnight
var Bands = map[TimeBand][2]time.Duration{
	BandMorning:   {6 * time.Hour, 12 * time.Hour},
	BandAfternoon: {12 * time.Hour, 17 * time.Hour},
	BandEvening:   {17 * time.Hour, 21 * time.Hour},
	BandNight:     {21 * time.Hour, 24 * time.Hour},
}

// DefaultCategoryBands is used when a task has no band of its own
var DefaultCategoryBands = map[Category]TimeBand{
	CategoryWork:     BandMorning,
	CategoryMeeting:  BandAfternoon,
	CategoryPersonal: BandEvening,
}

// PriorityTierNames maps host-facing tier names to tiers
var PriorityTierNames = map[string]PriorityTier{
	"low":      PriorityLow,
	"normal":   PriorityNormal,
	"high":     PriorityHigh,
	"critical": PriorityCritical,
}

func (p PriorityTier) String() string {
	for name, tier := range PriorityTierNames {
		if tier == p {
			return name
		}
	}
	return "unknown"
}

// Valid reports whether the tier is in the supported range
func (p PriorityTier) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// Valid reports whether the category is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryMeeting:
		return true
	}
	return false
}
