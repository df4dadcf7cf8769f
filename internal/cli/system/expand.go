package system

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/recurrence"
	"github.com/julianstephens/daylit-planner/internal/scheduler"
)

type ExpandCmd struct {
	Input   string   `arg:"" help:"Input document (JSON), or '-' for stdin." default:"-"`
	ICS     []string `help:"iCalendar file whose events are imported as locked events. Repeatable." name:"ics" type:"path"`
	Skipped bool     `help:"Also list dates removed by exclusions."`
	Format  string   `help:"Output format (text or json)." enum:"text,json" default:"text"`
}

// Series is the expansion of one repeating task or event
type Series struct {
	SourceID    string       `json:"source_id"`
	Name        string       `json:"name"`
	Rule        string       `json:"rule"`
	Occurrences []Occurrence `json:"occurrences"`
	Truncated   bool         `json:"truncated,omitempty"`
}

type Occurrence struct {
	ID        string `json:"id"`
	Start     string `json:"start"`
	Completed bool   `json:"completed,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

func (c *ExpandCmd) Run(ctx *cli.Context) error {
	in, err := ctx.LoadInput(cli.InputOptions{Path: c.Input, ICS: c.ICS})
	if err != nil {
		return err
	}

	series, err := c.expand(in.Request, in.Location)
	if err != nil {
		return err
	}

	if c.Format == "json" {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	}

	if len(series) == 0 {
		fmt.Fprintln(ctx.Out, "No repeating tasks or events.")
		return nil
	}
	for i, s := range series {
		if i > 0 {
			fmt.Fprintln(ctx.Out)
		}
		fmt.Fprintf(ctx.Out, "%s (%s)\n", s.Name, s.Rule)
		if len(s.Occurrences) == 0 {
			fmt.Fprintln(ctx.Out, "  no occurrences in the horizon")
		}
		for _, o := range s.Occurrences {
			var flags []string
			if o.Completed {
				flags = append(flags, "completed")
			}
			if o.Skipped {
				flags = append(flags, "skipped")
			}
			line := fmt.Sprintf("  %s  %s", o.Start, o.ID)
			if len(flags) > 0 {
				line += "  [" + strings.Join(flags, ", ") + "]"
			}
			fmt.Fprintln(ctx.Out, line)
		}
		if s.Truncated {
			fmt.Fprintln(ctx.Out, "  ... truncated")
		}
	}
	return nil
}

func (c *ExpandCmd) expand(req scheduler.Request, loc *time.Location) ([]Series, error) {
	opts := recurrence.Options{IncludeSkipped: c.Skipped}
	var out []Series

	one := func(id, name string, rule models.Recurrence, dtstart time.Time) error {
		seq, err := recurrence.Expand(id, rule, dtstart, req.Horizon, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		s := Series{SourceID: id, Name: name, Rule: recurrence.Describe(rule), Occurrences: []Occurrence{}}
		if s.Name == "" {
			s.Name = id
		}
		for _, occ := range seq.All() {
			s.Occurrences = append(s.Occurrences, Occurrence{
				ID:        occ.ID,
				Start:     occ.Start.In(loc).Format(constants.DateTimeFormat),
				Completed: occ.Completed,
				Skipped:   occ.Skipped,
			})
		}
		s.Truncated = seq.Truncated()
		out = append(out, s)
		return nil
	}

	for _, task := range req.Tasks {
		if task.Recurrence == nil {
			continue
		}
		if err := one(task.ID, task.Name, *task.Recurrence, scheduler.TaskAnchor(task, req.Horizon)); err != nil {
			return nil, err
		}
	}
	events := append(append([]models.Event{}, req.LockedEvents...), req.FlexibleEvents...)
	for _, ev := range events {
		if ev.Recurrence == nil {
			continue
		}
		if err := one(ev.ID, ev.Name, *ev.Recurrence, ev.Start); err != nil {
			return nil, err
		}
	}
	return out, nil
}
