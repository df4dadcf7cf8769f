package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/daylit-planner/internal/calendar"
	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/slot"
)

// place walks one item through search, split and bump until it is placed or gets a reason
func (r *run) place(it *item, allowBump bool) error {
	windows := r.activeWindows(it)
	budget := r.ceiling

	if _, err := r.fill(it, windows, &budget); err != nil {
		return err
	}
	if it.remaining() > 0 && allowBump && !it.exhausted {
		if err := r.bump(it, windows, &budget); err != nil {
			return err
		}
	}

	switch {
	case it.remaining() == 0:
		it.status = constants.StatusPlaced
		it.reason = ""
	case it.placed > 0:
		it.status = constants.StatusPartial
		it.reason = r.classify(it, windows)
		r.record(constants.DecisionPartial, it.ID, fmt.Sprintf("%s of %s placed: %s", it.placed, it.Duration, it.reason))
		r.warn("%s: only %s of %s placed (%s)", it.label(), it.placed, it.Duration, it.reason)
	default:
		it.status = constants.StatusUnscheduled
		it.reason = r.classify(it, windows)
		r.record(constants.DecisionUnscheduled, it.ID, string(it.reason))
		r.warn("%s: not scheduled (%s)", it.label(), it.reason)
	}

	logger.Debug("item settled",
		"item", it.ID,
		"status", it.status,
		"chunks", len(it.chunks),
		"placed", it.placed,
		"reason", it.reason,
	)
	return nil
}

// activeWindows is the item's search window cut to its category's active hours
func (r *run) activeWindows(it *item) []models.Interval {
	if it.window.Empty() {
		return nil
	}
	var out []models.Interval
	for _, day := range r.req.Horizon.Days() {
		for _, w := range r.req.ActiveHours.WindowsOn(it.category, day) {
			iv := w.Intersect(it.window)
			if !iv.Empty() {
				out = append(out, iv)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// fill reserves chunks until the item is complete or nothing more fits
func (r *run) fill(it *item, windows []models.Interval, budget *int) (bool, error) {
	progressed := false
	for it.remaining() > 0 {
		c, ok := r.pick(it, windows, budget)
		if !ok {
			break
		}
		if err := r.reserve(it, c.Interval); err != nil {
			return progressed, err
		}
		progressed = true
		r.record(constants.DecisionPlaced, it.ID, "reserved "+c.Interval.String())
		logger.Debug("chunk reserved",
			"item", it.ID,
			"slot", c.Interval.String(),
			"score", c.Score,
			"remaining", it.remaining(),
		)
	}
	return progressed, nil
}

// pick prefers a single block holding all remaining work and falls back to the best chunk anywhere
func (r *run) pick(it *item, windows []models.Interval, budget *int) (slot.Candidate, bool) {
	req := slot.Request{
		Remaining:    it.remaining(),
		MinChunk:     it.effectiveMin(),
		MaxChunk:     it.maxChunk,
		Band:         it.band,
		Anchor:       it.anchor,
		Window:       it.window,
		MinUsefulGap: r.req.ActiveHours.GapFor(it.category),
	}

	var whole, best slot.Candidate
	var haveWhole, haveBest bool
	for _, w := range windows {
		for _, gap := range r.tl.Free(w) {
			if *budget <= 0 {
				if !it.exhausted {
					r.record(constants.DecisionTruncated, it.ID, fmt.Sprintf("search stopped after %d free intervals", r.ceiling))
					r.warn("%s: search stopped at the iteration ceiling of %d", it.label(), r.ceiling)
				}
				it.exhausted = true
				logger.Warn("iteration ceiling reached", "item", it.ID, "ceiling", r.ceiling)
				return slot.Candidate{}, false
			}
			*budget--

			c, ok := r.opt.Best(gap, req)
			if !ok {
				continue
			}
			if c.Duration() == req.Remaining && better(c, whole, haveWhole) {
				whole, haveWhole = c, true
			}
			if better(c, best, haveBest) {
				best, haveBest = c, true
			}
		}
	}
	if haveWhole {
		return whole, true
	}
	return best, haveBest
}

func better(c, cur slot.Candidate, have bool) bool {
	if !have || c.Score > cur.Score {
		return true
	}
	return c.Score == cur.Score && c.Start.Before(cur.Start)
}

// eviction is an incumbent released during a bump attempt that may still be restored
type eviction struct {
	inc      *item
	released []models.Interval
}

// bump releases lower ranked flexible placements inside the item's windows one after another,
// retrying placement after each release. Releases accumulate until the item progresses; the
// incumbents whose time the new chunks used are evicted and the rest are restored.
func (r *run) bump(it *item, windows []models.Interval, budget *int) error {
	var pending []eviction
	for _, inc := range r.incumbents(it, windows) {
		if it.remaining() == 0 || it.exhausted {
			break
		}
		if !r.calc.CanBump(it.Item, inc.Item, r.now) {
			continue
		}

		pending = append(pending, eviction{inc: inc, released: r.tl.Release(inc.ID)})
		progressed, err := r.fill(it, windows, budget)
		if err != nil {
			return err
		}
		if !progressed {
			continue
		}
		if err := r.settle(it, pending); err != nil {
			return err
		}
		pending = nil
	}
	return r.restore(pending)
}

// settle evicts every pending incumbent whose released time is now taken and restores the others
func (r *run) settle(it *item, pending []eviction) error {
	var keep []eviction
	for _, ev := range pending {
		if r.untouched(ev.released) {
			keep = append(keep, ev)
			continue
		}
		inc := ev.inc
		inc.chunks = nil
		inc.placed = 0
		inc.status = constants.StatusUnscheduled
		inc.bumped = true
		r.deferred = append(r.deferred, inc)
		r.bumps++
		r.record(constants.DecisionBumped, inc.ID, "bumped by "+it.ID)
		logger.Debug("item bumped",
			"by", it.ID,
			"bumped", inc.ID,
			"score", r.calc.Score(it.Item, r.now),
			"incumbent_score", r.calc.Score(inc.Item, r.now),
		)
	}
	return r.restore(keep)
}

// restore gives released time back to incumbents that were not displaced
func (r *run) restore(pending []eviction) error {
	for _, ev := range pending {
		for _, iv := range ev.released {
			if err := r.tl.Reserve(iv, ev.inc.ID); err != nil {
				return r.invariant(err)
			}
		}
	}
	return nil
}

// untouched reports whether every interval is still entirely free
func (r *run) untouched(ivs []models.Interval) bool {
	for _, iv := range ivs {
		free := r.tl.Free(iv)
		if len(free) != 1 || !free[0].Start.Equal(iv.Start) || !free[0].End.Equal(iv.End) {
			return false
		}
	}
	return true
}

// incumbents lists other items holding time inside windows, in chronological order
func (r *run) incumbents(it *item, windows []models.Interval) []*item {
	seen := map[string]bool{it.ID: true}
	var out []*item
	for _, e := range r.tl.Entries() {
		if e.Locked || seen[e.Owner] {
			continue
		}
		for _, w := range windows {
			if e.Overlaps(w) {
				seen[e.Owner] = true
				if inc, ok := r.byID[e.Owner]; ok && !inc.fixed {
					out = append(out, inc)
				}
				break
			}
		}
	}
	return out
}

// classify names why an item could not be fully placed
func (r *run) classify(it *item, windows []models.Interval) constants.Reason {
	if it.exhausted {
		return constants.ReasonNoCapacity
	}
	need := it.effectiveMin()
	if rem := it.remaining(); rem < need {
		need = rem
	}

	var total time.Duration
	for _, w := range windows {
		total += w.Duration()
	}
	if total < it.Duration {
		return constants.ReasonNoCapacity
	}
	if !anyAtLeast(windows, need) {
		return constants.ReasonMinChunk
	}

	notLocked := func(e calendar.Entry) bool { return !e.Locked }
	var unlocked []models.Interval
	for _, w := range windows {
		unlocked = append(unlocked, r.tl.FreeExcept(w, notLocked)...)
	}
	if !anyAtLeast(unlocked, need) {
		return constants.ReasonBlockedByLocks
	}

	for _, w := range windows {
		if len(r.tl.Free(w)) > 0 {
			return constants.ReasonMinChunk
		}
	}
	return constants.ReasonNoCapacity
}

func anyAtLeast(ivs []models.Interval, d time.Duration) bool {
	for _, iv := range ivs {
		if iv.Duration() >= d {
			return true
		}
	}
	return false
}
