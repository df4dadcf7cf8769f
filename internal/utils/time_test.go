package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{
			name:     "empty string returns local",
			timezone: "",
			wantErr:  false,
		},
		{
			name:     "Local returns local",
			timezone: "Local",
			wantErr:  false,
		},
		{
			name:     "valid timezone UTC",
			timezone: "UTC",
			wantErr:  false,
		},
		{
			name:     "invalid timezone",
			timezone: "Invalid/Timezone",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 9*time.Hour + 30*time.Minute, false},
		{"23:59", 23*time.Hour + 59*time.Minute, false},
		{"24:00", 24 * time.Hour, false},
		{"9am", 0, true},
		{"25:00", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(9*time.Hour + 5*time.Minute); got != "09:05" {
		t.Errorf("FormatClock() = %q, want %q", got, "09:05")
	}
	if got := FormatClock(24 * time.Hour); got != "24:00" {
		t.Errorf("FormatClock() = %q, want %q", got, "24:00")
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{45 * time.Minute, "45m"},
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "1h30m"},
		{65 * time.Minute, "1h05m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.d); got != tt.want {
			t.Errorf("FormatMinutes(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRoundUpToGrid(t *testing.T) {
	grid := 15 * time.Minute
	tests := []struct {
		name  string
		input time.Time
		want  time.Time
	}{
		{
			name:  "already on boundary",
			input: time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC),
			want:  time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC),
		},
		{
			name:  "one minute past",
			input: time.Date(2026, 1, 5, 9, 1, 0, 0, time.UTC),
			want:  time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC),
		},
		{
			name:  "rolls into next hour",
			input: time.Date(2026, 1, 5, 9, 50, 0, 0, time.UTC),
			want:  time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "drops seconds",
			input: time.Date(2026, 1, 5, 9, 0, 30, 0, time.UTC),
			want:  time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundUpToGrid(tt.input, grid)
			if !got.Equal(tt.want) {
				t.Errorf("RoundUpToGrid(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoundUpToGrid_HalfHourOffsetZone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+30*60)
	input := time.Date(2026, 1, 5, 9, 7, 0, 0, loc)
	got := RoundUpToGrid(input, 15*time.Minute)
	if got.Hour() != 9 || got.Minute() != 15 {
		t.Errorf("RoundUpToGrid() = %v, want 09:15 local", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2026-01-05T09:00:00Z", time.Date(2026, 1, 5, 9, 0, 0, 0, loc), false},
		{"2026-01-05 09:30", time.Date(2026, 1, 5, 9, 30, 0, 0, loc), false},
		{"2026-01-05", time.Date(2026, 1, 5, 0, 0, 0, 0, loc), false},
		{"next tuesday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	c := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("expected same day")
	}
	if SameDay(b, c) {
		t.Error("expected different days")
	}
}
