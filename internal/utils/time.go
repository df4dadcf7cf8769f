package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseClock parses an HH:MM string into an offset from midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(clock string) (time.Duration, error) {
	if clock == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse(constants.TimeFormat, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", clock, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock formats an offset from midnight as HH:MM
func FormatClock(offset time.Duration) string {
	mins := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// FormatMinutes renders a duration as hours and minutes, e.g. 1h30m or 45m
func FormatMinutes(d time.Duration) string {
	mins := int(d / time.Minute)
	switch {
	case mins < 60:
		return fmt.Sprintf("%dm", mins)
	case mins%60 == 0:
		return fmt.Sprintf("%dh", mins/60)
	default:
		return fmt.Sprintf("%dh%02dm", mins/60, mins%60)
	}
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(clock string) bool {
	_, err := ParseClock(clock)
	return err == nil
}

// Midnight returns the start of t's calendar day in t's location
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// OffsetOfDay returns how far t is past midnight of its own day
func OffsetOfDay(t time.Time) time.Duration {
	return t.Sub(Midnight(t))
}

// RoundUpToGrid rounds t up to the next grid boundary measured from midnight.
// Times already on a boundary are kept; seconds and below are dropped.
func RoundUpToGrid(t time.Time, grid time.Duration) time.Time {
	day := Midnight(t)
	off := t.Sub(day)
	if rem := off % grid; rem != 0 {
		off += grid - rem
	}
	return day.Add(off)
}

// RoundDownToGrid rounds t down to the previous grid boundary measured from midnight.
func RoundDownToGrid(t time.Time, grid time.Duration) time.Time {
	day := Midnight(t)
	off := t.Sub(day)
	return day.Add(off - off%grid)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseTimestamp accepts RFC3339, "YYYY-MM-DD HH:MM" or "YYYY-MM-DD".
// Zone-less forms are interpreted in loc; RFC3339 values are converted into loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(constants.DateTimeFormat, s, loc); err == nil {
		return t, nil
	}
	if t, err := ParseDateInLocation(s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// SameDay reports whether two times fall on the same calendar day
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MinTime returns the earlier of two times
func MinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxTime returns the later of two times
func MaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
