package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
)

var fromRRuleFreq = map[rrule.Frequency]constants.Frequency{
	rrule.DAILY:   constants.FrequencyDaily,
	rrule.WEEKLY:  constants.FrequencyWeekly,
	rrule.MONTHLY: constants.FrequencyMonthly,
	rrule.YEARLY:  constants.FrequencyYearly,
}

// rrule.Weekday.Day() is 0 for Monday
var fromRRuleDay = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// FromRRule parses an RFC 5545 RRULE value such as "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=10".
// Only the parts the engine models are kept; BYMONTHDAY, BYSETPOS and friends are rejected
// rather than silently dropped.
func FromRRule(raw string) (models.Recurrence, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:")
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return models.Recurrence{}, fmt.Errorf("invalid RRULE %q: %w", raw, err)
	}

	freq, ok := fromRRuleFreq[opt.Freq]
	if !ok {
		return models.Recurrence{}, fmt.Errorf("%w: %v", ErrUnsupportedFrequency, opt.Freq)
	}
	if len(opt.Bymonthday) > 0 || len(opt.Bysetpos) > 0 || len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 || len(opt.Bymonth) > 0 || len(opt.Byhour) > 0 {
		return models.Recurrence{}, fmt.Errorf("RRULE %q uses parts that are not supported", raw)
	}

	rec := models.Recurrence{
		Frequency: freq,
		Interval:  opt.Interval,
		Count:     opt.Count,
	}
	if !opt.Until.IsZero() {
		until := opt.Until
		rec.Until = &until
	}
	for _, wd := range opt.Byweekday {
		rec.Weekdays = append(rec.Weekdays, fromRRuleDay[wd.Day()])
	}
	return rec, nil
}

// Describe renders a rule in a short human-readable form
func Describe(rec models.Recurrence) string {
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}

	var b strings.Builder
	unit := map[constants.Frequency]string{
		constants.FrequencyDaily:   "day",
		constants.FrequencyWeekly:  "week",
		constants.FrequencyMonthly: "month",
		constants.FrequencyYearly:  "year",
	}[rec.Frequency]
	if unit == "" {
		return "unknown"
	}
	if interval == 1 {
		fmt.Fprintf(&b, "every %s", unit)
	} else {
		fmt.Fprintf(&b, "every %d %ss", interval, unit)
	}
	if len(rec.Weekdays) > 0 {
		var days []string
		for _, wd := range rec.Weekdays {
			days = append(days, wd.String()[:3])
		}
		fmt.Fprintf(&b, " on %s", strings.Join(days, ","))
	}
	if rec.Count > 0 {
		fmt.Fprintf(&b, ", %d times", rec.Count)
	}
	if rec.Until != nil {
		fmt.Fprintf(&b, ", until %s", rec.Until.Format(constants.DateFormat))
	}
	return b.String()
}
