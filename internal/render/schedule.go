// Package render draws schedules and archived runs for the terminal.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

type row struct {
	start, end time.Time
	label      string
	note       string
	busy       bool
}

func clock(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format(constants.TimeFormat), end.Format(constants.TimeFormat))
}

// Schedule writes a day by day view of res in loc followed by every item that
// did not get its full duration
func Schedule(w io.Writer, res models.ScheduleResult, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	start, end := res.Horizon.Start.In(loc), res.Horizon.End.In(loc)
	b.WriteString(headerStyle.Render(fmt.Sprintf("Schedule %s - %s (%s)",
		start.Format(constants.DateTimeFormat), end.Format(constants.DateTimeFormat), loc)))
	b.WriteString("\n")

	days := make(map[string][]row)
	add := func(r row) {
		key := r.start.Format(constants.DateFormat)
		days[key] = append(days[key], r)
	}
	for _, iv := range res.Busy {
		add(row{start: iv.Start.In(loc), end: iv.End.In(loc), label: "busy", busy: true})
	}
	for _, iv := range res.Breaks {
		add(row{start: iv.Start.In(loc), end: iv.End.In(loc), label: "Break", note: "rest"})
	}
	for _, o := range res.Outcomes {
		for i, c := range o.Chunks {
			note := string(o.Status)
			if len(o.Chunks) > 1 {
				note = fmt.Sprintf("%s, part %d/%d", note, i+1, len(o.Chunks))
			}
			if o.Bumped {
				note += ", moved"
			}
			add(row{start: c.Start.In(loc), end: c.End.In(loc), label: o.Name, note: note})
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		b.WriteString("\n  Nothing scheduled\n")
	}
	for _, k := range keys {
		rows := days[k]
		sort.SliceStable(rows, func(i, j int) bool {
			if !rows[i].start.Equal(rows[j].start) {
				return rows[i].start.Before(rows[j].start)
			}
			return rows[i].busy && !rows[j].busy
		})

		day := rows[0].start
		fmt.Fprintf(&b, "\n%s\n", dayStyle.Render(fmt.Sprintf("%s %s", day.Format("Mon"), k)))
		for _, r := range rows {
			if r.busy {
				fmt.Fprintf(&b, "  %s%s\n", timeStyle.Render(clock(r.start, r.end)), busyStyle.Render(r.label))
				continue
			}
			fmt.Fprintf(&b, "  %s%s  %s\n", timeStyle.Render(clock(r.start, r.end)), taskStyle.Render(r.label), statusStyle.Render(r.note))
		}
	}

	var missing []models.Outcome
	for _, o := range res.Outcomes {
		if o.Status != constants.StatusPlaced {
			missing = append(missing, o)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\n%s\n", warningStyle.Render("Not fully scheduled"))
		for _, o := range missing {
			style := warningStyle
			if o.Status == constants.StatusUnscheduled {
				style = dangerStyle
			}
			fmt.Fprintf(&b, "  %s  %s  %s\n",
				taskStyle.Render(o.ItemID),
				style.Render(string(o.Status)),
				statusStyle.Render(fmt.Sprintf("%s, %s of %s", o.Reason, utils.FormatMinutes(o.Placed), utils.FormatMinutes(o.Required))))
		}
	}

	s := res.Stats
	fmt.Fprintf(&b, "\n%d items: %d placed, %d partial, %d unscheduled, %d chunks, %d moved",
		s.Items, s.Placed, s.Partial, s.Unscheduled, s.Chunks, s.Bumps)
	if s.Breaks > 0 {
		fmt.Fprintf(&b, ", %d breaks", s.Breaks)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
