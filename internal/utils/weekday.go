package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

var weekdayGroups = map[string][]time.Weekday{
	"daily":    {time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	"weekdays": {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	"weekends": {time.Saturday, time.Sunday},
}

// ParseWeekdays parses names ("mon", "Tuesday"), numbers (0=Sunday, 6=Saturday)
// and the groups "daily", "weekdays" and "weekends". Duplicates are dropped.
func ParseWeekdays(parts []string) ([]time.Weekday, error) {
	var out []time.Weekday
	seen := make(map[time.Weekday]bool)
	add := func(wd time.Weekday) {
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if group, ok := weekdayGroups[part]; ok {
			for _, wd := range group {
				add(wd)
			}
			continue
		}
		if wd, ok := weekdayNames[part]; ok {
			add(wd)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		add(time.Weekday(num))
	}
	return out, nil
}

// WeekdayName returns the lower-case three letter name used in config files
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}
