// Package adapter converts host-shaped JSON and iCalendar input into engine
// requests and engine results back into host-shaped JSON.
package adapter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/recurrence"
	"github.com/julianstephens/daylit-planner/internal/scheduler"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

// Document is the JSON input a host hands to the planner
type Document struct {
	Now     string       `json:"now,omitempty"`
	Horizon *HorizonSpec `json:"horizon,omitempty"`
	Tasks   []TaskSpec   `json:"tasks"`
	Events  []EventSpec  `json:"events"`
}

// HorizonSpec bounds a run. Days is used when End is empty.
type HorizonSpec struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
	Days  int    `json:"days,omitempty"`
}

// TaskSpec is a task as hosts write it: minutes, named tiers, RRULE strings
type TaskSpec struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DurationMin   int      `json:"duration_min"`
	MinChunkMin   int      `json:"min_chunk_min,omitempty"`
	MaxChunkMin   int      `json:"max_chunk_min,omitempty"`
	Deadline      string   `json:"deadline,omitempty"`
	Category      string   `json:"category,omitempty"`
	Priority      string   `json:"priority,omitempty"`
	RRule         string   `json:"rrule,omitempty"`
	ExDates       []string `json:"exdates,omitempty"`
	Completed     []string `json:"completed,omitempty"`
	Locked        bool     `json:"locked,omitempty"`
	EarliestStart string   `json:"earliest_start,omitempty"`
	LatestEnd     string   `json:"latest_end,omitempty"`
	Band          string   `json:"band,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// EventSpec is a calendar event; Locked events are immovable
type EventSpec struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Locked    bool     `json:"locked"`
	Category  string   `json:"category,omitempty"`
	Priority  string   `json:"priority,omitempty"`
	RRule     string   `json:"rrule,omitempty"`
	ExDates   []string `json:"exdates,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// Defaults carries what the document itself does not say, usually from the config file
type Defaults struct {
	Location         *time.Location
	Horizon          models.Horizon
	Now              time.Time
	ActiveHours      models.ActiveHours
	Weights          models.Weights
	IterationCeiling int
	Breaks           models.Breaks
}

// Decode reads a Document and rejects unknown fields and trailing data
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("failed to decode input: trailing data")
		}
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return &doc, nil
}

// DefaultChunkBounds derives chunk bounds from a duration when the host leaves them out:
// half the duration with a 15 minute floor, and one and a half times it capped at three hours.
func DefaultChunkBounds(duration time.Duration) (time.Duration, time.Duration) {
	minChunk := duration / 2
	if minChunk < constants.DefaultMinChunkFloor {
		minChunk = constants.DefaultMinChunkFloor
	}
	if minChunk > duration {
		minChunk = duration
	}
	maxChunk := duration * 3 / 2
	if maxChunk > constants.DefaultMaxChunkCeiling {
		maxChunk = constants.DefaultMaxChunkCeiling
	}
	if maxChunk < minChunk {
		maxChunk = minChunk
	}
	return minChunk, maxChunk
}

// converter keeps the location and the first error so field parsing reads linearly
type converter struct {
	loc *time.Location
	err error
}

func (c *converter) fail(id, field string, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("%s: %s: %w", id, field, err)
	}
}

func (c *converter) timestamp(id, field, raw string) time.Time {
	t, err := utils.ParseTimestamp(raw, c.loc)
	if err != nil {
		c.fail(id, field, err)
	}
	return t
}

func (c *converter) optTime(id, field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t := c.timestamp(id, field, raw)
	return &t
}

func (c *converter) dates(id, field string, raw []string) []time.Time {
	var out []time.Time
	for _, r := range raw {
		out = append(out, c.timestamp(id, field, r))
	}
	return out
}

func (c *converter) tier(id, raw string, fallback constants.PriorityTier) constants.PriorityTier {
	if raw == "" {
		return fallback
	}
	tier, ok := constants.PriorityTierNames[strings.ToLower(raw)]
	if !ok {
		c.fail(id, "priority", fmt.Errorf("unknown priority %q", raw))
	}
	return tier
}

func (c *converter) rule(id, raw string, exdates, completed []string) *models.Recurrence {
	if raw == "" {
		if len(exdates) > 0 || len(completed) > 0 {
			c.fail(id, "rrule", fmt.Errorf("exdates and completed need a recurrence rule"))
		}
		return nil
	}
	rec, err := recurrence.FromRRule(raw)
	if err != nil {
		c.fail(id, "rrule", err)
		return nil
	}
	rec.Exclusions = c.dates(id, "exdates", exdates)
	rec.Completed = c.dates(id, "completed", completed)
	return &rec
}

func (c *converter) task(spec TaskSpec) models.Task {
	dur := time.Duration(spec.DurationMin) * time.Minute
	minChunk, maxChunk := DefaultChunkBounds(dur)
	if spec.MinChunkMin > 0 {
		minChunk = time.Duration(spec.MinChunkMin) * time.Minute
	}
	if spec.MaxChunkMin > 0 {
		maxChunk = time.Duration(spec.MaxChunkMin) * time.Minute
	}
	category := constants.Category(strings.ToLower(spec.Category))
	if category == "" {
		category = constants.CategoryWork
	}

	task := models.Task{
		ID:            spec.ID,
		Name:          spec.Name,
		Duration:      dur,
		MinChunk:      minChunk,
		MaxChunk:      maxChunk,
		Deadline:      c.optTime(spec.ID, "deadline", spec.Deadline),
		Category:      category,
		Priority:      c.tier(spec.ID, spec.Priority, constants.PriorityNormal),
		Recurrence:    c.rule(spec.ID, spec.RRule, spec.ExDates, spec.Completed),
		Locked:        spec.Locked,
		EarliestStart: c.optTime(spec.ID, "earliest_start", spec.EarliestStart),
		LatestEnd:     c.optTime(spec.ID, "latest_end", spec.LatestEnd),
		PreferredBand: constants.TimeBand(strings.ToLower(spec.Band)),
	}
	if spec.CreatedAt != "" {
		task.CreatedAt = c.timestamp(spec.ID, "created_at", spec.CreatedAt)
	}
	if task.Name == "" {
		task.Name = task.ID
	}
	return task
}

func (c *converter) event(spec EventSpec) models.Event {
	ev := models.Event{
		ID:         spec.ID,
		Name:       spec.Name,
		Start:      c.timestamp(spec.ID, "start", spec.Start),
		End:        c.timestamp(spec.ID, "end", spec.End),
		Locked:     spec.Locked,
		Category:   constants.Category(strings.ToLower(spec.Category)),
		Priority:   c.tier(spec.ID, spec.Priority, 0),
		Recurrence: c.rule(spec.ID, spec.RRule, spec.ExDates, nil),
	}
	if spec.CreatedAt != "" {
		ev.CreatedAt = c.timestamp(spec.ID, "created_at", spec.CreatedAt)
	}
	if ev.Name == "" {
		ev.Name = ev.ID
	}
	return ev
}

func (c *converter) horizon(spec *HorizonSpec, fallback models.Horizon) models.Horizon {
	if spec == nil {
		return fallback
	}
	start := c.timestamp("horizon", "start", spec.Start)
	if spec.End != "" {
		return models.Horizon{Start: start, End: c.timestamp("horizon", "end", spec.End)}
	}
	days := spec.Days
	if days <= 0 {
		days = int(fallback.End.Sub(fallback.Start).Hours() / 24)
	}
	if days <= 0 {
		days = 1
	}
	return models.Horizon{Start: start, End: start.AddDate(0, 0, days)}
}

// Request converts the document into a scheduler request. Values missing from the
// document come from d. Field-level parse errors name the item and field; semantic
// checks are left to the scheduler's validation.
func (doc *Document) Request(d Defaults) (scheduler.Request, error) {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	c := &converter{loc: loc}

	req := scheduler.Request{
		ActiveHours:      d.ActiveHours,
		Weights:          d.Weights,
		Horizon:          c.horizon(doc.Horizon, d.Horizon),
		Now:              d.Now,
		IterationCeiling: d.IterationCeiling,
		Breaks:           d.Breaks,
	}
	if doc.Now != "" {
		req.Now = c.timestamp("document", "now", doc.Now)
	}

	for _, spec := range doc.Tasks {
		req.Tasks = append(req.Tasks, c.task(spec))
	}
	for _, spec := range doc.Events {
		ev := c.event(spec)
		if ev.Locked {
			req.LockedEvents = append(req.LockedEvents, ev)
		} else {
			req.FlexibleEvents = append(req.FlexibleEvents, ev)
		}
	}

	if c.err != nil {
		return scheduler.Request{}, c.err
	}
	return req, nil
}
