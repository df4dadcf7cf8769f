package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/scheduler"
)

const sampleDoc = `{
  "horizon": {"start": "2026-01-05 00:00", "days": 1},
  "tasks": [
    {"id": "write-report", "name": "Write report", "duration_min": 90, "min_chunk_min": 30, "max_chunk_min": 60,
     "deadline": "2026-01-05 12:00", "priority": "high"},
    {"id": "stretch", "duration_min": 20, "category": "personal", "rrule": "FREQ=DAILY", "completed": ["2026-01-06"]}
  ],
  "events": [
    {"id": "standup", "name": "Standup", "start": "2026-01-05T09:00:00Z", "end": "2026-01-05T10:00:00Z", "locked": true},
    {"id": "1on1", "start": "2026-01-05 14:00", "end": "2026-01-05 14:30", "priority": "low"}
  ]
}`

func workdayDefaults() Defaults {
	return Defaults{
		Location: time.UTC,
		ActiveHours: models.ActiveHours{Windows: map[constants.Category][]models.Window{
			constants.CategoryWork:     {{Weekday: time.Monday, Start: 9 * time.Hour, End: 12 * time.Hour}},
			constants.CategoryMeeting:  {{Weekday: time.Monday, Start: 9 * time.Hour, End: 17 * time.Hour}},
			constants.CategoryPersonal: {{Weekday: time.Monday, Start: 18 * time.Hour, End: 21 * time.Hour}},
		}},
	}
}

func TestDecodeAndRequest(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	req, err := doc.Request(workdayDefaults())
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	wantStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !req.Horizon.Start.Equal(wantStart) || !req.Horizon.End.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("horizon = %v-%v", req.Horizon.Start, req.Horizon.End)
	}
	if len(req.Tasks) != 2 || len(req.LockedEvents) != 1 || len(req.FlexibleEvents) != 1 {
		t.Fatalf("split = %d tasks, %d locked, %d flexible", len(req.Tasks), len(req.LockedEvents), len(req.FlexibleEvents))
	}

	report := req.Tasks[0]
	if report.Duration != 90*time.Minute || report.MinChunk != 30*time.Minute || report.MaxChunk != time.Hour {
		t.Errorf("report durations = %v/%v/%v", report.Duration, report.MinChunk, report.MaxChunk)
	}
	if report.Priority != constants.PriorityHigh || report.Category != constants.CategoryWork {
		t.Errorf("report tier/category = %v/%v", report.Priority, report.Category)
	}
	if report.Deadline == nil || !report.Deadline.Equal(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("report deadline = %v", report.Deadline)
	}

	stretch := req.Tasks[1]
	if stretch.Name != "stretch" || stretch.Recurrence == nil || stretch.Recurrence.Frequency != constants.FrequencyDaily {
		t.Errorf("stretch = %+v", stretch)
	}
	if stretch.MinChunk != 15*time.Minute || stretch.MaxChunk != 30*time.Minute {
		t.Errorf("stretch default bounds = %v/%v, want 15m/30m", stretch.MinChunk, stretch.MaxChunk)
	}
	if len(stretch.Recurrence.Completed) != 1 {
		t.Errorf("completed dates = %v", stretch.Recurrence.Completed)
	}

	if ev := req.FlexibleEvents[0]; ev.Priority != constants.PriorityLow || ev.Category != "" {
		t.Errorf("flexible event = %+v", ev)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", `{"tasks": [{"id": "a", "duration": 30}]}`},
		{"trailing data", `{"tasks": []} {"tasks": []}`},
		{"not json", `tasks: []`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.input)); err == nil {
				t.Error("Decode succeeded, want an error")
			}
		})
	}
}

func TestRequest_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr string
	}{
		{
			name:    "bad deadline",
			doc:     Document{Tasks: []TaskSpec{{ID: "a", DurationMin: 30, Deadline: "tomorrow"}}},
			wantErr: "a: deadline",
		},
		{
			name:    "bad priority",
			doc:     Document{Tasks: []TaskSpec{{ID: "a", DurationMin: 30, Priority: "urgent"}}},
			wantErr: "unknown priority",
		},
		{
			name:    "bad rrule",
			doc:     Document{Tasks: []TaskSpec{{ID: "a", DurationMin: 30, RRule: "FREQ=SOMETIMES"}}},
			wantErr: "a: rrule",
		},
		{
			name:    "exdates without rule",
			doc:     Document{Events: []EventSpec{{ID: "e", Start: "2026-01-05 09:00", End: "2026-01-05 10:00", ExDates: []string{"2026-01-06"}}}},
			wantErr: "need a recurrence rule",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Request(workdayDefaults())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Request error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRequest_HorizonFallback(t *testing.T) {
	d := workdayDefaults()
	d.Horizon = models.Horizon{
		Start: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
	}

	req, err := (&Document{}).Request(d)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if req.Horizon != d.Horizon {
		t.Errorf("horizon = %+v, want the default", req.Horizon)
	}

	req, err = (&Document{Horizon: &HorizonSpec{Start: "2026-02-01"}}).Request(d)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if got := req.Horizon.End.Sub(req.Horizon.Start); got != 72*time.Hour {
		t.Errorf("horizon length = %v, want the default three days", got)
	}
}

func TestDefaultChunkBounds(t *testing.T) {
	tests := []struct {
		duration time.Duration
		min, max time.Duration
	}{
		{10 * time.Minute, 10 * time.Minute, 15 * time.Minute},
		{20 * time.Minute, 15 * time.Minute, 30 * time.Minute},
		{90 * time.Minute, 45 * time.Minute, 135 * time.Minute},
		{4 * time.Hour, 2 * time.Hour, 3 * time.Hour},
		{8 * time.Hour, 4 * time.Hour, 4 * time.Hour},
	}
	for _, tt := range tests {
		minChunk, maxChunk := DefaultChunkBounds(tt.duration)
		if minChunk != tt.min || maxChunk != tt.max {
			t.Errorf("DefaultChunkBounds(%v) = %v/%v, want %v/%v", tt.duration, minChunk, maxChunk, tt.min, tt.max)
		}
	}
}

func TestResultDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	req, err := doc.Request(workdayDefaults())
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	res, err := scheduler.New().Schedule(context.Background(), req)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	out := NewResultDocument(res, time.UTC)
	var buf bytes.Buffer
	if err := out.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded ResultDocument
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want report, one stretch occurrence and the 1:1", len(decoded.Outcomes))
	}

	report := decoded.Outcomes[0]
	if report.ID != "write-report" || report.Status != "placed" || report.PlacedMin != 90 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Chunks) != 2 || report.Chunks[0].Start != "2026-01-05T10:00:00Z" {
		t.Errorf("report chunks = %+v", report.Chunks)
	}
	if stretch := decoded.Outcomes[1]; stretch.SourceID != "stretch" || stretch.Date != "2026-01-05" {
		t.Errorf("stretch occurrence = %+v", stretch)
	}
	if len(decoded.Busy) != 1 || decoded.Busy[0].End != "2026-01-05T10:00:00Z" {
		t.Errorf("busy = %+v", decoded.Busy)
	}
	if len(decoded.Log) == 0 || decoded.Log[0].ItemID == "" {
		t.Errorf("log = %+v, want the placement decisions", decoded.Log)
	}
}
