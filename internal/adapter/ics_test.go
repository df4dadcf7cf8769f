package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//daylit-planner//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20260105T090000Z\r\n" +
	"DTEND:20260105T091500Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"EXDATE:20260107T090000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"SUMMARY:Standup (moved)\r\n" +
	"RECURRENCE-ID:20260108T090000Z\r\n" +
	"DTSTART:20260108T100000Z\r\n" +
	"DTEND:20260108T101500Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:lunch@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"SUMMARY:Lunch\r\n" +
	"DTSTART;TZID=America/New_York:20260105T120000\r\n" +
	"DTEND;TZID=America/New_York:20260105T130000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20260106\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:cancelled@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"SUMMARY:Cancelled\r\n" +
	"STATUS:CANCELLED\r\n" +
	"DTSTART:20260105T150000Z\r\n" +
	"DTEND:20260105T160000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:focus@example.com\r\n" +
	"DTSTAMP:20260101T000000Z\r\n" +
	"SUMMARY:Focus (free)\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"DTSTART:20260105T160000Z\r\n" +
	"DTEND:20260105T170000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestImportICS(t *testing.T) {
	events, err := ImportICS(strings.NewReader(sampleICS), ICSOptions{Location: time.UTC})
	if err != nil {
		t.Fatalf("ImportICS failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want standup, its override and lunch: %+v", len(events), events)
	}

	standup := events[0]
	if standup.ID != "standup@example.com" || !standup.Locked || standup.Name != "Standup" {
		t.Errorf("standup = %+v", standup)
	}
	if standup.Recurrence == nil || standup.Recurrence.Frequency != constants.FrequencyDaily || standup.Recurrence.Count != 5 {
		t.Fatalf("standup rule = %+v", standup.Recurrence)
	}
	if !standup.Recurrence.Excludes(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Error("EXDATE was not imported")
	}
	if !standup.Recurrence.Excludes(time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Error("the overridden date should be excluded from the rule")
	}

	moved := events[1]
	if moved.ID != "standup@example.com@20260108" || moved.Recurrence != nil {
		t.Errorf("override = %+v", moved)
	}
	if !moved.Start.Equal(time.Date(2026, 1, 8, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("override start = %v", moved.Start)
	}

	lunch := events[2]
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	if !lunch.Start.Equal(time.Date(2026, 1, 5, 12, 0, 0, 0, ny)) || lunch.End.Sub(lunch.Start) != time.Hour {
		t.Errorf("lunch = %v-%v", lunch.Start, lunch.End)
	}
	if lunch.Start.Location() != time.UTC {
		t.Errorf("lunch should be converted into the target location, got %v", lunch.Start.Location())
	}
}

func TestImportICS_AllDay(t *testing.T) {
	events, err := ImportICS(strings.NewReader(sampleICS), ICSOptions{Location: time.UTC, IncludeAllDay: true})
	if err != nil {
		t.Fatalf("ImportICS failed: %v", err)
	}
	var found bool
	for _, ev := range events {
		if ev.ID == "holiday@example.com" {
			found = true
			if !ev.Start.Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)) || ev.End.Sub(ev.Start) != 24*time.Hour {
				t.Errorf("holiday = %v-%v", ev.Start, ev.End)
			}
		}
	}
	if !found {
		t.Error("all-day event was not imported")
	}
}

func TestParseICSTime(t *testing.T) {
	tests := []struct {
		value string
		tzid  string
		want  time.Time
	}{
		{"20260105T090000Z", "", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
		{"20260105T090000", "", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
		{"20260105", "", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseICSTime(tt.value, tt.tzid, time.UTC)
		if err != nil {
			t.Errorf("parseICSTime(%q) failed: %v", tt.value, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseICSTime(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if _, err := parseICSTime("20260105T090000", "Mars/Olympus", time.UTC); err == nil {
		t.Error("unknown TZID should fail")
	}
}
