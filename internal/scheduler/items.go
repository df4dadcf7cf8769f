package scheduler

import (
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/priority"
	"github.com/julianstephens/daylit-planner/internal/recurrence"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

// item is one schedulable unit: a task, a task occurrence or a flexible event occurrence
type item struct {
	priority.Item

	sourceID string
	name     string
	kind     constants.ItemKind
	date     string
	category constants.Category
	minChunk time.Duration
	maxChunk time.Duration
	band     constants.TimeBand
	anchor   *time.Time
	window   models.Interval

	// fixed items come from locked tasks; they are reported but never moved
	fixed bool

	chunks    []models.Chunk
	placed    time.Duration
	status    constants.OutcomeStatus
	reason    constants.Reason
	bumped    bool
	exhausted bool
}

func (it *item) remaining() time.Duration {
	return it.Duration - it.placed
}

// label is the display name, falling back to the ID
func (it *item) label() string {
	if it.name != "" {
		return it.name
	}
	return it.ID
}

// effectiveMin lets a task shorter than its minimum chunk go in as one block
func (it *item) effectiveMin() time.Duration {
	if it.Duration < it.minChunk {
		return it.Duration
	}
	return it.minChunk
}

// expand turns the request into items and returns the locked commitments for the timeline
func (r *run) expand() ([]models.Event, error) {
	var locked []models.Event

	for _, task := range r.req.Tasks {
		var err error
		if task.Locked {
			var evs []models.Event
			evs, err = r.addLockedTask(task)
			locked = append(locked, evs...)
		} else {
			err = r.addTask(task)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, ev := range r.req.LockedEvents {
		occs, err := r.eventOccurrences(ev)
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			locked = append(locked, occ.Event)
		}
	}

	for _, ev := range r.req.FlexibleEvents {
		occs, err := r.eventOccurrences(ev)
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			r.addEvent(occ)
		}
	}
	return locked, nil
}

func (r *run) add(it *item) {
	it.Index = len(r.items)
	r.items = append(r.items, it)
	r.byID[it.ID] = it
}

func (r *run) taskItem(task models.Task, id, date string) *item {
	band := task.PreferredBand
	if band == "" {
		band = r.req.ActiveHours.BandFor(task.Category)
	}
	return &item{
		Item: priority.Item{
			ID:        id,
			Deadline:  task.Deadline,
			Duration:  task.Duration,
			Tier:      task.Priority,
			CreatedAt: task.CreatedAt,
		},
		sourceID: task.ID,
		name:     task.Name,
		kind:     constants.KindTask,
		date:     date,
		category: task.Category,
		minChunk: task.MinChunk,
		maxChunk: task.MaxChunk,
		band:     band,
		status:   constants.StatusUnscheduled,
	}
}

// TaskAnchor is the DTSTART a repeating task's rule is expanded from.
// Locked tasks fire at their start and deadline-bearing rules at each due
// time; habits fire once per period from the first day of the horizon.
func TaskAnchor(task models.Task, horizon models.Horizon) time.Time {
	switch {
	case task.Locked && task.EarliestStart != nil:
		return *task.EarliestStart
	case task.Deadline != nil:
		return *task.Deadline
	case task.EarliestStart != nil:
		return *task.EarliestStart
	default:
		return utils.Midnight(horizon.Start)
	}
}

// addTask registers a flexible task, one item per occurrence when it repeats
func (r *run) addTask(task models.Task) error {
	if task.Recurrence == nil {
		it := r.taskItem(task, task.ID, "")
		it.window = r.searchWindow(task.EarliestStart, task.Deadline, task.LatestEnd)
		r.add(it)
		return nil
	}

	seq, err := recurrence.Expand(task.ID, *task.Recurrence, TaskAnchor(task, r.req.Horizon), r.req.Horizon, recurrence.Options{})
	if err != nil {
		return err
	}
	for {
		occ, ok := seq.Next()
		if !ok {
			break
		}
		if occ.Completed {
			continue
		}

		it := r.taskItem(task, occ.ID, occ.Date())
		if task.Deadline != nil {
			due := occ.Start
			earliest := task.EarliestStart
			if occ.Previous != nil {
				earliest = occ.Previous
			}
			it.Deadline = &due
			it.window = r.searchWindow(earliest, &due, task.LatestEnd)
		} else {
			dayEnd := utils.Midnight(occ.Start).AddDate(0, 0, 1)
			if task.LatestEnd != nil && task.LatestEnd.Before(dayEnd) {
				dayEnd = *task.LatestEnd
			}
			start := occ.Start
			it.window = r.searchWindow(&start, nil, &dayEnd)
		}
		r.add(it)
	}
	return nil
}

// addLockedTask reports a locked task as placed at its fixed start and returns its busy time
func (r *run) addLockedTask(task models.Task) ([]models.Event, error) {
	starts := []time.Time{*task.EarliestStart}
	ids := []string{task.ID}
	dates := []string{""}

	if task.Recurrence != nil {
		seq, err := recurrence.Expand(task.ID, *task.Recurrence, TaskAnchor(task, r.req.Horizon), r.req.Horizon, recurrence.Options{})
		if err != nil {
			return nil, err
		}
		starts, ids, dates = nil, nil, nil
		for _, occ := range seq.All() {
			if occ.Completed {
				continue
			}
			starts = append(starts, occ.Start)
			ids = append(ids, occ.ID)
			dates = append(dates, occ.Date())
		}
	}

	var evs []models.Event
	for i, start := range starts {
		iv := models.Interval{Start: start, End: start.Add(task.Duration)}
		it := r.taskItem(task, ids[i], dates[i])
		it.Locked = true
		it.fixed = true
		it.status = constants.StatusPlaced
		it.chunks = []models.Chunk{{Start: iv.Start, End: iv.End}}
		it.placed = task.Duration
		r.add(it)

		evs = append(evs, models.Event{ID: ids[i], Name: task.Name, Start: iv.Start, End: iv.End, Locked: true})
	}
	return evs, nil
}

type eventOccurrence struct {
	models.Event
	sourceID string
	date     string
}

func (r *run) eventOccurrences(ev models.Event) ([]eventOccurrence, error) {
	if ev.Recurrence == nil {
		return []eventOccurrence{{Event: ev, sourceID: ev.ID}}, nil
	}

	seq, err := recurrence.Expand(ev.ID, *ev.Recurrence, ev.Start, r.req.Horizon, recurrence.Options{})
	if err != nil {
		return nil, err
	}
	dur := ev.End.Sub(ev.Start)
	var out []eventOccurrence
	for _, occ := range seq.All() {
		if occ.Completed {
			continue
		}
		e := ev
		e.ID = occ.ID
		e.Start = occ.Start
		e.End = occ.Start.Add(dur)
		e.Recurrence = nil
		out = append(out, eventOccurrence{Event: e, sourceID: ev.ID, date: occ.Date()})
	}
	return out, nil
}

// addEvent registers a flexible event as a single-chunk item due at its own end
func (r *run) addEvent(occ eventOccurrence) {
	category := occ.Category
	if category == "" {
		category = constants.CategoryMeeting
	}
	tier := occ.Priority
	if tier == 0 {
		tier = constants.PriorityNormal
	}
	dur := occ.End.Sub(occ.Start)
	due := occ.End
	start := occ.Start

	it := &item{
		Item: priority.Item{
			ID:        occ.ID,
			Deadline:  &due,
			Duration:  dur,
			Tier:      tier,
			CreatedAt: occ.CreatedAt,
		},
		sourceID: occ.sourceID,
		name:     occ.Name,
		kind:     constants.KindEvent,
		date:     occ.date,
		category: category,
		minChunk: dur,
		maxChunk: dur,
		anchor:   &start,
		status:   constants.StatusUnscheduled,
	}
	it.window = r.searchWindow(nil, &due, nil)
	r.add(it)
}

// searchWindow clamps the horizon by now and the optional item bounds
func (r *run) searchWindow(earliest, deadline, latest *time.Time) models.Interval {
	w := models.Interval{Start: utils.MaxTime(r.req.Horizon.Start, r.now), End: r.req.Horizon.End}
	if earliest != nil {
		w.Start = utils.MaxTime(w.Start, *earliest)
	}
	if deadline != nil {
		w.End = utils.MinTime(w.End, *deadline)
	}
	if latest != nil {
		w.End = utils.MinTime(w.End, *latest)
	}
	if w.End.Before(w.Start) {
		w.End = w.Start
	}
	return w
}
