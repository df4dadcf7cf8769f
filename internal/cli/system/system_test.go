package system

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daylit-planner/internal/backup"
	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/config"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/validation"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Storage = filepath.Join(dir, "runs.db")

	ctx := cli.NewContext(context.Background(), filepath.Join(dir, "config.yaml"), cfg)
	var out bytes.Buffer
	ctx.Out = &out
	ctx.Now = func() time.Time { return time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { ctx.Close() })
	return ctx, &out, dir
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func TestInitCmd_Success(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(ctx.ConfigPath); err != nil {
		t.Errorf("config was not written: %v", err)
	}
	if _, err := os.Stat(ctx.StoreTarget()); err != nil {
		t.Errorf("archive was not created: %v", err)
	}
	if !strings.Contains(out.String(), "Initialized run archive") {
		t.Errorf("output = %s", out.String())
	}

	cfg, err := config.Load(ctx.ConfigPath)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Storage != ctx.StoreTarget() {
		t.Errorf("config storage = %q, want %q", cfg.Storage, ctx.StoreTarget())
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	store, err := ctx.Store()
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := store.SaveRun(ctx.Context(), models.Run{ID: "kept", CreatedAt: time.Now(), Input: []byte(`{}`), Result: []byte(`{}`)}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	ctx.Close()

	out.Reset()
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if !strings.Contains(out.String(), "Using existing config") {
		t.Errorf("second init should keep the config: %s", out.String())
	}
	store, err = ctx.Store()
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := store.GetRun(ctx.Context(), "kept"); err != nil {
		t.Errorf("second init lost a run: %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _, _ := setupTestContext(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	store, _ := ctx.Store()
	if err := store.SaveRun(ctx.Context(), models.Run{ID: "gone", CreatedAt: time.Now(), Input: []byte(`{}`), Result: []byte(`{}`)}); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	store, err := ctx.Store()
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	runs, err := store.ListRuns(ctx.Context(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("forced init kept %d run(s)", len(runs))
	}

	snapshots, err := backup.NewManager(ctx.StoreTarget()).List()
	if err != nil || len(snapshots) != 1 {
		t.Errorf("forced init should leave one snapshot, got %d (%v)", len(snapshots), err)
	}
}

func TestInitCmd_CopiesFromSource(t *testing.T) {
	ctx, out, dir := setupTestContext(t)

	source := filepath.Join(dir, "old.json")
	src, err := cli.NewStore(source)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := src.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second"} {
		run := models.Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour), Input: []byte(`{}`), Result: []byte(`{}`)}
		if err := src.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	if err := (&InitCmd{Source: source}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out.String(), "Copied 2 run(s)") {
		t.Errorf("output = %s", out.String())
	}
	store, _ := ctx.Store()
	runs, err := store.ListRuns(ctx.Context(), 0)
	if err != nil || len(runs) != 2 || runs[0].ID != "second" {
		t.Errorf("copied runs = %+v, %v", runs, err)
	}

	if err := (&InitCmd{Force: true, Source: ctx.StoreTarget()}).Run(ctx); err == nil {
		t.Error("--force with the destination as source should fail")
	}
}

func TestValidateCmd(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		want    string
	}{
		{
			name:  "valid",
			input: `{"horizon": {"start": "2026-01-05 00:00", "days": 1}, "tasks": [{"id": "a", "duration_min": 30}]}`,
			want:  "No problems detected.",
		},
		{
			name: "duplicate IDs and bad chunks",
			input: `{"horizon": {"start": "2026-01-05 00:00", "days": 1}, "tasks": [
				{"id": "a", "duration_min": 30},
				{"id": "a", "duration_min": 60, "min_chunk_min": 45, "max_chunk_min": 30}
			]}`,
			wantErr: true,
			want:    "Invalid input:",
		},
		{
			name: "overlapping locked events warn",
			input: `{"horizon": {"start": "2026-01-05 00:00", "days": 1}, "events": [
				{"id": "x", "start": "2026-01-05 09:00", "end": "2026-01-05 10:00", "locked": true},
				{"id": "y", "start": "2026-01-05 09:30", "end": "2026-01-05 10:30", "locked": true}
			]}`,
			want: "Warnings:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out, dir := setupTestContext(t)
			err := (&ValidateCmd{Input: writeInput(t, dir, tt.input)}).Run(ctx)
			if tt.wantErr {
				if !errors.Is(err, validation.ErrInvalidInput) {
					t.Errorf("error = %v, want ErrInvalidInput", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}

const expandDoc = `{
  "horizon": {"start": "2026-01-05 00:00", "days": 3},
  "tasks": [
    {"id": "stretch", "name": "Stretch", "duration_min": 20, "category": "personal",
     "rrule": "FREQ=DAILY", "exdates": ["2026-01-06"], "completed": ["2026-01-07"]},
    {"id": "once", "duration_min": 30}
  ],
  "events": [
    {"id": "standup", "start": "2026-01-05 09:00", "end": "2026-01-05 09:15", "locked": true,
     "rrule": "FREQ=WEEKLY;BYDAY=MO,WE"}
  ]
}`

func TestExpandCmd_Text(t *testing.T) {
	ctx, out, dir := setupTestContext(t)
	if err := (&ExpandCmd{Input: writeInput(t, dir, expandDoc), Format: "text", Skipped: true}).Run(ctx); err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Stretch (", "2026-01-05 00:00", "[skipped]", "[completed]", "standup (", "2026-01-07 09:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "once") {
		t.Error("one-off tasks should not be listed")
	}
}

func TestExpandCmd_JSON(t *testing.T) {
	ctx, out, dir := setupTestContext(t)
	if err := (&ExpandCmd{Input: writeInput(t, dir, expandDoc), Format: "json"}).Run(ctx); err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	var series []Series
	if err := json.Unmarshal(out.Bytes(), &series); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(series) != 2 {
		t.Fatalf("got %d series, want stretch and standup", len(series))
	}
	stretch := series[0]
	if stretch.SourceID != "stretch" || len(stretch.Occurrences) != 2 {
		t.Errorf("stretch = %+v, want the excluded day left out", stretch)
	}
	if standup := series[1]; len(standup.Occurrences) != 2 {
		t.Errorf("standup = %+v, want Monday and Wednesday", standup)
	}
}

func TestDoctorCmd(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	err := (&DoctorCmd{}).Run(ctx)
	if err == nil {
		t.Error("doctor should fail before the archive exists")
	}
	if !strings.Contains(out.String(), "SKIPPED") {
		t.Errorf("dependent checks should be skipped:\n%s", out.String())
	}

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	ctx.Close()
	out.Reset()
	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor failed after init: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "All checks passed.") {
		t.Errorf("output = %s", out.String())
	}
}
