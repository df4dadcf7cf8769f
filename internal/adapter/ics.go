package adapter

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/recurrence"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

// ICSOptions controls calendar import
type ICSOptions struct {
	Location *time.Location
	// IncludeAllDay blocks whole days for all-day events; by default they are skipped
	IncludeAllDay bool
}

type icsEvent struct {
	models.Event
	uid      string
	override *time.Time
}

// ImportICS reads VEVENTs as locked events. Recurring events keep their rule;
// RECURRENCE-ID overrides become single events and exclude the date they replace.
// Cancelled and transparent events are free time and are skipped.
func ImportICS(r io.Reader, opts ICSOptions) ([]models.Event, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var parsed []icsEvent
	for _, ve := range cal.Events() {
		ev, ok, err := parseVEvent(ve, loc, opts.IncludeAllDay)
		if err != nil {
			logger.Warn("skipping calendar event", "uid", ev.uid, "error", err)
			continue
		}
		if ok {
			parsed = append(parsed, ev)
		}
	}

	// recurrence rules are shared by pointer, so exclusions added here reach the output
	masters := make(map[string]*models.Recurrence)
	for _, ev := range parsed {
		if ev.override == nil && ev.Recurrence != nil {
			masters[ev.uid] = ev.Recurrence
		}
	}

	used := make(map[string]int)
	var out []models.Event
	for _, ev := range parsed {
		if ev.override != nil {
			if rec, ok := masters[ev.uid]; ok {
				rec.Exclusions = append(rec.Exclusions, *ev.override)
			}
			ev.ID = ev.uid + "@" + ev.override.Format("20060102")
		}
		if n := used[ev.ID]; n > 0 {
			used[ev.ID]++
			ev.ID = fmt.Sprintf("%s#%d", ev.ID, n+1)
		} else {
			used[ev.ID] = 1
		}
		out = append(out, ev.Event)
	}

	logger.Debug("calendar imported", "events", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location, includeAllDay bool) (icsEvent, bool, error) {
	var ev icsEvent
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, false, fmt.Errorf("missing UID")
	}
	ev.uid = uid.Value
	ev.ID = uid.Value
	ev.Locked = true

	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return ev, false, nil
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return ev, false, nil
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Name = p.Value
	}
	if ev.Name == "" {
		ev.Name = ev.uid
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return ev, false, fmt.Errorf("missing DTSTART")
	}
	start, allDay, err := propTime(startProp, loc)
	if err != nil {
		return ev, false, fmt.Errorf("DTSTART: %w", err)
	}
	if allDay && !includeAllDay {
		return ev, false, nil
	}
	ev.Start = start

	switch endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); {
	case endProp != nil:
		if ev.End, _, err = propTime(endProp, loc); err != nil {
			return ev, false, fmt.Errorf("DTEND: %w", err)
		}
	case allDay:
		ev.End = start.AddDate(0, 0, 1)
	default:
		return ev, false, fmt.Errorf("missing DTEND")
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rec, err := recurrence.FromRRule(p.Value)
		if err != nil {
			return ev, false, err
		}
		for _, ex := range ve.GetProperties(ical.ComponentPropertyExdate) {
			for _, part := range strings.Split(ex.Value, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				t, err := parseICSTime(part, paramValue(ex.ICalParameters, "TZID"), loc)
				if err != nil {
					return ev, false, fmt.Errorf("EXDATE: %w", err)
				}
				rec.Exclusions = append(rec.Exclusions, t)
			}
		}
		ev.Recurrence = &rec
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		t, _, err := propTime(p, loc)
		if err != nil {
			return ev, false, fmt.Errorf("RECURRENCE-ID: %w", err)
		}
		ev.override = &t
		ev.Recurrence = nil
	}
	return ev, true, nil
}

// propTime reads a DATE or DATE-TIME property, honouring TZID, and reports whether it was a DATE
func propTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	allDay := strings.EqualFold(paramValue(p.ICalParameters, "VALUE"), "DATE") || !strings.Contains(p.Value, "T")
	t, err := parseICSTime(p.Value, paramValue(p.ICalParameters, "TZID"), loc)
	return t, allDay, err
}

// parseICSTime handles UTC, zoned, floating and date-only forms; results are in loc
func parseICSTime(v, tzid string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("empty time value")
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(loc), err
	case strings.Contains(v, "T"):
		src := loc
		if tzid != "" {
			zone, err := utils.LoadLocation(tzid)
			if err != nil {
				return time.Time{}, fmt.Errorf("unknown TZID %q: %w", tzid, err)
			}
			src = zone
		}
		t, err := time.ParseInLocation("20060102T150405", v, src)
		return t.In(loc), err
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

func paramValue(params map[string][]string, key string) string {
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
