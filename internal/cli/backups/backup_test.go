package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/config"
	"github.com/julianstephens/daylit-planner/internal/models"
)

func setupTestContext(t *testing.T, storage string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Storage = filepath.Join(dir, storage)

	ctx := cli.NewContext(context.Background(), filepath.Join(dir, "config.yaml"), cfg)
	var out bytes.Buffer
	ctx.Out = &out
	t.Cleanup(func() { ctx.Close() })

	store, err := cli.NewStore(cfg.Storage)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	ctx.SetStore(store)
	return ctx, &out
}

func saveRun(t *testing.T, ctx *cli.Context, id string) {
	t.Helper()
	store, err := ctx.Store()
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	run := models.Run{ID: id, CreatedAt: time.Now().UTC(), Input: []byte(`{}`), Result: []byte(`{}`)}
	if err := store.SaveRun(ctx.Context(), run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
}

func runCount(t *testing.T, ctx *cli.Context) int {
	t.Helper()
	store, err := ctx.Store()
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	runs, err := store.ListRuns(ctx.Context(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	return len(runs)
}

func TestBackupWorkflow(t *testing.T) {
	for _, storage := range []string{"runs.db", "runs.json"} {
		t.Run(storage, func(t *testing.T) {
			ctx, out := setupTestContext(t, storage)

			if err := (&BackupListCmd{}).Run(ctx); err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if !strings.Contains(out.String(), "No snapshots found.") {
				t.Errorf("output = %s", out.String())
			}

			saveRun(t, ctx, "first")
			out.Reset()
			if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
				t.Fatalf("create failed: %v", err)
			}
			line := strings.TrimSpace(out.String())
			if !strings.HasPrefix(line, "✓ Snapshot created: ") {
				t.Fatalf("output = %s", line)
			}
			name := strings.TrimPrefix(line, "✓ Snapshot created: ")

			out.Reset()
			if err := (&BackupListCmd{}).Run(ctx); err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if !strings.Contains(out.String(), name) {
				t.Errorf("list does not show %s:\n%s", name, out.String())
			}

			saveRun(t, ctx, "second")
			out.Reset()
			if err := (&BackupRestoreCmd{Snapshot: name, Yes: true}).Run(ctx); err != nil {
				t.Fatalf("restore failed: %v", err)
			}
			if !strings.Contains(out.String(), "Archive restored") {
				t.Errorf("output = %s", out.String())
			}
			if got := runCount(t, ctx); got != 1 {
				t.Errorf("restored archive has %d runs, want 1", got)
			}
		})
	}
}

func TestBackupRestore_Cancelled(t *testing.T) {
	ctx, out := setupTestContext(t, "runs.db")
	saveRun(t, ctx, "first")
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	name := strings.TrimPrefix(strings.TrimSpace(out.String()), "✓ Snapshot created: ")
	saveRun(t, ctx, "second")

	ctx.In = strings.NewReader("n\n")
	out.Reset()
	if err := (&BackupRestoreCmd{Snapshot: name}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Restore cancelled.") {
		t.Errorf("output = %s", out.String())
	}
	if got := runCount(t, ctx); got != 2 {
		t.Errorf("archive has %d runs, want it untouched", got)
	}
}

func TestBackup_PostgresRejected(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = "postgres://localhost/daylit"
	ctx := cli.NewContext(context.Background(), filepath.Join(t.TempDir(), "config.yaml"), cfg)
	ctx.Out = &bytes.Buffer{}

	if err := (&BackupCreateCmd{}).Run(ctx); err == nil || !strings.Contains(err.Error(), "pg_dump") {
		t.Errorf("error = %v, want a pg_dump hint", err)
	}
}
