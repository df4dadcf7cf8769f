package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

// ErrInvalidInput is matched by every *Error through errors.Is
var ErrInvalidInput = errors.New("invalid scheduling input")

// Code identifies the kind of input problem
type Code string

const (
	CodeMissingID        Code = "missing_id"
	CodeDuplicateID      Code = "duplicate_id"
	CodeInvalidDuration  Code = "invalid_duration"
	CodeInvalidChunk     Code = "invalid_chunk_bounds"
	CodeEndBeforeStart   Code = "end_before_start"
	CodeDeadlineTooEarly Code = "deadline_before_horizon"
	CodeInvalidCategory  Code = "invalid_category"
	CodeInvalidPriority  Code = "invalid_priority"
	CodeInvalidBand      Code = "invalid_band"
	CodeInvalidRule      Code = "invalid_recurrence"
	CodeMissingAnchor    Code = "missing_anchor"
	CodeInvalidWindow    Code = "invalid_window"
	CodeOverlapWindow    Code = "overlapping_windows"
	CodeInvalidHorizon   Code = "invalid_horizon"
)

// Error identifies the offending item and field
type Error struct {
	ItemID  string
	Field   string
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.ItemID, e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrInvalidInput
}

// ConflictType represents a non-fatal problem worth reporting
type ConflictType string

const (
	ConflictOverlappingLocked ConflictType = "overlapping_locked_events"
	ConflictOvercommitted     ConflictType = "overcommitted"
)

// Conflict is a warning; the run still proceeds
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string
}

// Input is everything a scheduling run is given
type Input struct {
	Tasks          []models.Task
	LockedEvents   []models.Event
	FlexibleEvents []models.Event
	ActiveHours    models.ActiveHours
	Horizon        models.Horizon
}

// Result holds every issue and warning found in an input
type Result struct {
	Issues    []*Error
	Conflicts []Conflict
}

func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// FormatReport returns a human-readable report of issues and warnings
func (r *Result) FormatReport() string {
	if len(r.Issues) == 0 && len(r.Conflicts) == 0 {
		return "No problems detected."
	}

	var b strings.Builder
	if len(r.Issues) > 0 {
		b.WriteString("Invalid input:\n")
		for _, issue := range r.Issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}
	if len(r.Conflicts) > 0 {
		b.WriteString("Warnings:\n")
		for _, c := range r.Conflicts {
			fmt.Fprintf(&b, "- %s\n", c.Description)
		}
	}
	return b.String()
}

// Validator checks scheduling input before any placement work
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate returns the first offending item, or nil
func Validate(in Input) error {
	return New().Validate(in)
}

func (v *Validator) Validate(in Input) error {
	res := v.Check(in)
	if res.HasIssues() {
		return res.Issues[0]
	}
	return nil
}

// Check collects every issue and warning in the input
func (v *Validator) Check(in Input) Result {
	res := Result{}
	add := func(id, field string, code Code, format string, args ...interface{}) {
		res.Issues = append(res.Issues, &Error{ItemID: id, Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if !in.Horizon.End.After(in.Horizon.Start) {
		add("", "horizon", CodeInvalidHorizon, "end %s is not after start %s",
			in.Horizon.End.Format(constants.DateTimeFormat), in.Horizon.Start.Format(constants.DateTimeFormat))
	}

	seen := make(map[string]bool)
	checkID := func(id string) bool {
		if id == "" {
			add("", "id", CodeMissingID, "item has no identifier")
			return false
		}
		if seen[id] {
			add(id, "id", CodeDuplicateID, "identifier is used more than once")
			return false
		}
		seen[id] = true
		return true
	}

	for _, task := range in.Tasks {
		if !checkID(task.ID) {
			continue
		}
		v.checkTask(task, in.Horizon, add)
	}
	for _, ev := range in.LockedEvents {
		if checkID(ev.ID) {
			v.checkEvent(ev, add)
		}
	}
	for _, ev := range in.FlexibleEvents {
		if checkID(ev.ID) {
			v.checkEvent(ev, add)
		}
	}
	v.checkActiveHours(in.ActiveHours, add)

	res.Conflicts = append(res.Conflicts, overlappingLocked(in.LockedEvents)...)
	if c, ok := overcommitted(in); ok {
		res.Conflicts = append(res.Conflicts, c)
	}
	return res
}

type addFunc func(id, field string, code Code, format string, args ...interface{})

func (v *Validator) checkTask(task models.Task, horizon models.Horizon, add addFunc) {
	if task.Duration <= 0 {
		add(task.ID, "duration", CodeInvalidDuration, "must be positive, got %v", task.Duration)
	}
	if task.MinChunk <= 0 {
		add(task.ID, "min_chunk", CodeInvalidChunk, "must be positive, got %v", task.MinChunk)
	}
	if task.MaxChunk < task.MinChunk {
		add(task.ID, "max_chunk", CodeInvalidChunk, "%v is smaller than min_chunk %v", task.MaxChunk, task.MinChunk)
	}
	if !task.Category.Valid() {
		add(task.ID, "category", CodeInvalidCategory, "unknown category %q", task.Category)
	}
	if !task.Priority.Valid() {
		add(task.ID, "priority", CodeInvalidPriority, "tier %d is outside 1..4", task.Priority)
	}
	if task.PreferredBand != "" {
		if _, ok := constants.Bands[task.PreferredBand]; !ok {
			add(task.ID, "preferred_band", CodeInvalidBand, "unknown band %q", task.PreferredBand)
		}
	}
	if task.Deadline != nil && task.Recurrence == nil && task.Deadline.Before(horizon.Start) {
		add(task.ID, "deadline", CodeDeadlineTooEarly, "%s is before the horizon start %s",
			task.Deadline.Format(constants.DateTimeFormat), horizon.Start.Format(constants.DateTimeFormat))
	}
	if task.EarliestStart != nil && task.LatestEnd != nil && !task.LatestEnd.After(*task.EarliestStart) {
		add(task.ID, "latest_end", CodeEndBeforeStart, "%s is not after earliest_start %s",
			task.LatestEnd.Format(constants.DateTimeFormat), task.EarliestStart.Format(constants.DateTimeFormat))
	}
	if task.Locked && task.EarliestStart == nil {
		add(task.ID, "earliest_start", CodeMissingAnchor, "a locked task needs a fixed start")
	}
	if task.Recurrence != nil {
		checkRecurrence(task.ID, *task.Recurrence, add)
	}
}

func (v *Validator) checkEvent(ev models.Event, add addFunc) {
	if !ev.End.After(ev.Start) {
		add(ev.ID, "end", CodeEndBeforeStart, "%s is not after start %s",
			ev.End.Format(constants.DateTimeFormat), ev.Start.Format(constants.DateTimeFormat))
	}
	if ev.Category != "" && !ev.Category.Valid() {
		add(ev.ID, "category", CodeInvalidCategory, "unknown category %q", ev.Category)
	}
	if ev.Priority != 0 && !ev.Priority.Valid() {
		add(ev.ID, "priority", CodeInvalidPriority, "tier %d is outside 1..4", ev.Priority)
	}
	if ev.Recurrence != nil {
		checkRecurrence(ev.ID, *ev.Recurrence, add)
	}
}

func checkRecurrence(id string, rule models.Recurrence, add addFunc) {
	switch rule.Frequency {
	case constants.FrequencyDaily, constants.FrequencyWeekly, constants.FrequencyMonthly, constants.FrequencyYearly:
	default:
		add(id, "recurrence.frequency", CodeInvalidRule, "unsupported frequency %q", rule.Frequency)
	}
	if rule.Interval < 0 {
		add(id, "recurrence.interval", CodeInvalidRule, "must be at least 1, got %d", rule.Interval)
	}
	if rule.Count < 0 {
		add(id, "recurrence.count", CodeInvalidRule, "must not be negative, got %d", rule.Count)
	}
}

func (v *Validator) checkActiveHours(hours models.ActiveHours, add addFunc) {
	cats := make([]string, 0, len(hours.Windows))
	for cat := range hours.Windows {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)

	for _, name := range cats {
		cat := constants.Category(name)
		field := "active_hours." + name
		if !cat.Valid() {
			add("", field, CodeInvalidCategory, "unknown category %q", name)
			continue
		}

		byDay := make(map[time.Weekday][]models.Window)
		for _, w := range hours.Windows[cat] {
			if w.Start < 0 || w.End > 24*time.Hour || w.End <= w.Start {
				add("", field, CodeInvalidWindow, "window %s-%s on %s is not a valid time range",
					utils.FormatClock(w.Start), utils.FormatClock(w.End), w.Weekday)
				continue
			}
			byDay[w.Weekday] = append(byDay[w.Weekday], w)
		}

		for day := time.Sunday; day <= time.Saturday; day++ {
			ws := byDay[day]
			sort.Slice(ws, func(i, j int) bool { return ws[i].Start < ws[j].Start })
			for i := 1; i < len(ws); i++ {
				if ws[i].Start < ws[i-1].End {
					add("", field, CodeOverlapWindow, "windows %s-%s and %s-%s overlap on %s",
						utils.FormatClock(ws[i-1].Start), utils.FormatClock(ws[i-1].End), utils.FormatClock(ws[i].Start), utils.FormatClock(ws[i].End), day)
				}
			}
		}
	}
}

// overlappingLocked reports locked events that share time; they are merged, not rejected
func overlappingLocked(events []models.Event) []Conflict {
	sorted := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ev.End.After(ev.Start) && ev.Recurrence == nil {
			sorted = append(sorted, ev)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var out []Conflict
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted) && sorted[j].Start.Before(sorted[i].End); j++ {
			a, b := sorted[i], sorted[j]
			out = append(out, Conflict{
				Type:        ConflictOverlappingLocked,
				Description: fmt.Sprintf("Locked events %q and %q overlap", a.Name, b.Name),
				Items:       []string{a.ID, b.ID},
			})
		}
	}
	return out
}

// overcommitted compares one-off flexible work against the active hours inside the horizon
func overcommitted(in Input) (Conflict, bool) {
	if !in.Horizon.End.After(in.Horizon.Start) {
		return Conflict{}, false
	}

	var work time.Duration
	var ids []string
	for _, task := range in.Tasks {
		if task.Locked || task.Recurrence != nil {
			continue
		}
		work += task.Duration
		ids = append(ids, task.ID)
	}
	if work == 0 {
		return Conflict{}, false
	}

	var capacity time.Duration
	seen := make(map[models.Interval]bool)
	for _, day := range in.Horizon.Days() {
		for cat := range in.ActiveHours.Windows {
			for _, iv := range in.ActiveHours.WindowsOn(cat, day) {
				iv = iv.Intersect(in.Horizon.Interval())
				if iv.Empty() || seen[iv] {
					continue
				}
				seen[iv] = true
				capacity += iv.Duration()
			}
		}
	}
	if work <= capacity {
		return Conflict{}, false
	}
	return Conflict{
		Type: ConflictOvercommitted,
		Description: fmt.Sprintf("Tasks need %s but active hours in the horizon only offer %s",
			fmtHours(work), fmtHours(capacity)),
		Items: ids,
	}, true
}

func fmtHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}
