package priority

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
)

// Item is the view of a task, occurrence or flexible event the calculator ranks
type Item struct {
	ID        string
	Deadline  *time.Time
	Duration  time.Duration
	Tier      constants.PriorityTier
	CreatedAt time.Time
	// Index is the insertion order, the last tie-breaker
	Index int
	// Locked items never move; Final placements may not be bumped either
	Locked bool
	Final  bool
}

// Breakdown lists the factors behind a score
type Breakdown struct {
	Tier        constants.PriorityTier
	TierTerm    float64
	Ratio       float64 // remaining work / time left, 0 without a deadline
	Urgency     float64
	UrgencyTerm float64
	Overdue     bool
	Total       float64
}

func (b Breakdown) String() string {
	if b.Ratio == 0 && b.Urgency == 0 {
		return fmt.Sprintf("tier %s (%.0f) = %.0f", b.Tier, b.TierTerm, b.Total)
	}
	if b.Overdue {
		return fmt.Sprintf("tier %s (%.0f) + urgency overdue (%.0f) = %.0f", b.Tier, b.TierTerm, b.UrgencyTerm, b.Total)
	}
	return fmt.Sprintf("tier %s (%.0f) + urgency %.2f (%.0f) = %.0f", b.Tier, b.TierTerm, b.Ratio, b.UrgencyTerm, b.Total)
}

// Calculator scores and orders items under a fixed set of weights
type Calculator struct {
	weights models.Weights
}

func NewCalculator(weights models.Weights) *Calculator {
	return &Calculator{weights: weights}
}

// Score combines the tier term with the deadline urgency term
func (c *Calculator) Score(item Item, now time.Time) float64 {
	return c.Explain(item, now).Total
}

// Explain returns the score along with the factors that produced it
func (c *Calculator) Explain(item Item, now time.Time) Breakdown {
	b := Breakdown{
		Tier:     item.Tier,
		TierTerm: c.weights.Priority * float64(item.Tier) * constants.TierScale,
	}
	if item.Deadline != nil {
		b.Ratio, b.Urgency, b.Overdue = urgency(item.Duration, item.Deadline.Sub(now))
		b.UrgencyTerm = c.weights.Urgency * b.Urgency
	}
	b.Total = b.TierTerm + b.UrgencyTerm
	return b
}

// urgency grows as the remaining work approaches the time left.
// At ratio 0.5 it equals UrgencyScale; zero slack or overdue hits the cap.
func urgency(work, left time.Duration) (ratio, value float64, overdue bool) {
	if left <= 0 {
		return math.Inf(1), constants.UrgencyCap, true
	}
	ratio = float64(work) / float64(left)
	if ratio >= 1 {
		return ratio, constants.UrgencyCap, false
	}
	value = constants.UrgencyScale * ratio / (1 - ratio)
	return ratio, math.Min(value, constants.UrgencyCap), false
}

// Compare orders a before b when it returns a negative number
func (c *Calculator) Compare(a, b Item, now time.Time) int {
	return compare(a, b, c.Score(a, now), c.Score(b, now))
}

func compare(a, b Item, sa, sb float64) int {
	switch {
	case sa > sb:
		return -1
	case sa < sb:
		return 1
	}

	switch {
	case a.Deadline != nil && b.Deadline == nil:
		return -1
	case a.Deadline == nil && b.Deadline != nil:
		return 1
	case a.Deadline != nil && b.Deadline != nil && !a.Deadline.Equal(*b.Deadline):
		if a.Deadline.Before(*b.Deadline) {
			return -1
		}
		return 1
	}

	if !a.CreatedAt.IsZero() && !b.CreatedAt.IsZero() && !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	}

	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return 0
}

// CanBump reports whether candidate may evict incumbent's placement.
// The score gap must exceed the bump margin so a bumped item cannot bounce back.
func (c *Calculator) CanBump(candidate, incumbent Item, now time.Time) bool {
	if incumbent.Locked || incumbent.Final {
		return false
	}
	return c.Score(candidate, now)-c.Score(incumbent, now) > c.weights.BumpMargin
}

// Sort returns the items in scheduling order without modifying the input
func (c *Calculator) Sort(items []Item, now time.Time) []Item {
	type scored struct {
		item  Item
		score float64
	}
	tmp := make([]scored, len(items))
	for i, it := range items {
		tmp[i] = scored{item: it, score: c.Score(it, now)}
	}
	sort.SliceStable(tmp, func(i, j int) bool {
		return compare(tmp[i].item, tmp[j].item, tmp[i].score, tmp[j].score) < 0
	})

	out := make([]Item, len(tmp))
	for i, s := range tmp {
		out[i] = s.item
	}
	return out
}
