package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/daylit-planner/internal/calendar"
	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/priority"
	"github.com/julianstephens/daylit-planner/internal/slot"
	"github.com/julianstephens/daylit-planner/internal/validation"
)

// ErrInvariant signals broken interval bookkeeping. It never describes bad input.
var ErrInvariant = errors.New("scheduler invariant violated")

// Request is the complete input of one scheduling run
type Request struct {
	Tasks          []models.Task
	LockedEvents   []models.Event
	FlexibleEvents []models.Event
	ActiveHours    models.ActiveHours
	Weights        models.Weights // zero value means models.DefaultWeights
	Horizon        models.Horizon
	Breaks         models.Breaks

	// Now anchors urgency and the earliest placement; zero means the horizon start
	Now time.Time
	// IterationCeiling bounds the free intervals examined per item; zero means the default
	IterationCeiling int
}

type Scheduler struct{}

func New() *Scheduler {
	return &Scheduler{}
}

// run holds the working state of one Schedule call
type run struct {
	req     Request
	now     time.Time
	ceiling int
	calc    *priority.Calculator
	opt     *slot.Optimizer
	tl      *calendar.BusyTimeline

	items    []*item
	byID     map[string]*item
	deferred []*item
	bumps    int

	log      []models.LogEntry
	warnings []string
	breaks   []models.Interval
}

// Schedule places every task and flexible event of req and reports an outcome for each.
// Invalid input fails the whole run before any placement is made.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (models.ScheduleResult, error) {
	err := validation.Validate(validation.Input{
		Tasks:          req.Tasks,
		LockedEvents:   req.LockedEvents,
		FlexibleEvents: req.FlexibleEvents,
		ActiveHours:    req.ActiveHours,
		Horizon:        req.Horizon,
	})
	if err != nil {
		return models.ScheduleResult{}, err
	}

	r := newRun(req)
	locked, err := r.expand()
	if err != nil {
		return models.ScheduleResult{}, err
	}
	r.tl, err = calendar.Normalize(locked, req.Horizon)
	if err != nil {
		return models.ScheduleResult{}, err
	}

	pool, err := r.seedFlexibleEvents()
	if err != nil {
		return models.ScheduleResult{}, err
	}

	logger.Debug("scheduling run started",
		"items", len(r.items),
		"pool", len(pool),
		"locked", len(locked),
		"horizon", req.Horizon.Interval().String(),
	)

	for _, it := range pool {
		if err := ctx.Err(); err != nil {
			return models.ScheduleResult{}, err
		}
		if err := r.place(it, true); err != nil {
			return models.ScheduleResult{}, err
		}
	}

	// bumped items get exactly one more attempt and can no longer bump or be bumped
	for _, it := range r.deferred {
		if err := ctx.Err(); err != nil {
			return models.ScheduleResult{}, err
		}
		it.Final = true
		if err := r.place(it, false); err != nil {
			return models.ScheduleResult{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return models.ScheduleResult{}, err
	}
	if err := r.insertBreaks(); err != nil {
		return models.ScheduleResult{}, err
	}
	return r.result(), nil
}

func newRun(req Request) *run {
	now := req.Now
	if now.IsZero() {
		now = req.Horizon.Start
	}
	ceiling := req.IterationCeiling
	if ceiling <= 0 {
		ceiling = constants.DefaultIterationCeiling
	}
	if req.Weights == (models.Weights{}) {
		req.Weights = models.DefaultWeights()
	}
	if req.Breaks.Duration <= 0 {
		req.Breaks.Duration = constants.DefaultBreakDuration
	}
	if req.Breaks.Interval <= 0 {
		req.Breaks.Interval = constants.DefaultBreakInterval
	}
	return &run{
		req:     req,
		now:     now,
		ceiling: ceiling,
		calc:    priority.NewCalculator(req.Weights),
		opt:     slot.NewOptimizer(req.Weights),
		byID:    make(map[string]*item),
	}
}

// seedFlexibleEvents keeps flexible events at their own time when it is free.
// Seeded events are ordinary bumpable incumbents; the rest join the pool.
func (r *run) seedFlexibleEvents() ([]*item, error) {
	var events, pool []*item
	for _, it := range r.items {
		switch {
		case it.fixed:
		case it.kind == constants.KindEvent:
			events = append(events, it)
		default:
			pool = append(pool, it)
		}
	}

	for _, it := range r.order(events) {
		own := models.Interval{Start: *it.anchor, End: it.anchor.Add(it.Duration)}
		free := r.tl.Free(own)
		if own.Start.Before(it.window.Start) || !r.req.Horizon.Interval().Contains(own) ||
			len(free) != 1 || !free[0].Start.Equal(own.Start) || !free[0].End.Equal(own.End) {
			pool = append(pool, it)
			continue
		}
		if err := r.reserve(it, own); err != nil {
			return nil, err
		}
		it.status = constants.StatusPlaced
		r.record(constants.DecisionSeeded, it.ID, "kept at "+own.String())
		logger.Debug("flexible event kept in place", "item", it.ID, "slot", own.String())
	}
	return r.order(pool), nil
}

// order sorts items with the priority calculator
func (r *run) order(items []*item) []*item {
	views := make([]priority.Item, len(items))
	for i, it := range items {
		views[i] = it.Item
	}
	sorted := r.calc.Sort(views, r.now)
	out := make([]*item, len(sorted))
	for i, v := range sorted {
		out[i] = r.byID[v.ID]
	}
	return out
}

func (r *run) reserve(it *item, iv models.Interval) error {
	if err := r.tl.Reserve(iv, it.ID); err != nil {
		return r.invariant(err)
	}
	it.chunks = append(it.chunks, models.Chunk{Start: iv.Start, End: iv.End})
	it.placed += iv.Duration()
	return nil
}

func (r *run) record(d constants.Decision, itemID, msg string) {
	r.log = append(r.log, models.LogEntry{Decision: d, ItemID: itemID, Message: msg})
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *run) invariant(err error) error {
	if errors.Is(err, calendar.ErrOverlap) {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return err
}

func (r *run) result() models.ScheduleResult {
	res := models.ScheduleResult{
		Horizon:  r.req.Horizon,
		Outcomes: make([]models.Outcome, 0, len(r.items)),
		Busy:     r.tl.Locked(),
		Breaks:   r.breaks,
		Log:      r.log,
		Warnings: r.warnings,
	}
	for _, it := range r.items {
		chunks := make([]models.Chunk, len(it.chunks))
		copy(chunks, it.chunks)
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].Start.Before(chunks[j].Start) })

		out := models.Outcome{
			ItemID:   it.ID,
			SourceID: it.sourceID,
			Name:     it.name,
			Kind:     it.kind,
			Date:     it.date,
			Status:   it.status,
			Chunks:   chunks,
			Required: it.Duration,
			Placed:   it.placed,
			Reason:   it.reason,
			Score:    r.calc.Score(it.Item, r.now),
			Bumped:   it.bumped,
		}
		res.Outcomes = append(res.Outcomes, out)

		res.Stats.Items++
		res.Stats.Chunks += len(chunks)
		switch it.status {
		case constants.StatusPlaced:
			res.Stats.Placed++
		case constants.StatusPartial:
			res.Stats.Partial++
		default:
			res.Stats.Unscheduled++
		}
	}
	res.Stats.Bumps = r.bumps
	res.Stats.Breaks = len(r.breaks)
	return res
}
