package backups

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/daylit-planner/internal/backup"
	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/storage/postgres"
)

// manager rejects archives that are not local files
func manager(ctx *cli.Context) (*backup.Manager, error) {
	target := ctx.StoreTarget()
	if postgres.IsConnString(target) {
		return nil, fmt.Errorf("snapshots are only supported for SQLite and JSON archives; use pg_dump for PostgreSQL")
	}
	path, err := cli.ExpandPath(target)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Snapshot created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	snapshots, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snapshots) == 0 {
		fmt.Fprintln(ctx.Out, "No snapshots found.")
		fmt.Fprintf(ctx.Out, "Snapshots are stored in: %s\n", mgr.Dir())
		return nil
	}

	fmt.Fprintf(ctx.Out, "Available snapshots (%d total, keeping most recent %d):\n\n", len(snapshots), backup.MaxSnapshots)
	for _, s := range snapshots {
		fmt.Fprintf(ctx.Out, "  %s  %s  (%.1f KB)\n",
			s.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(s.Path), float64(s.Size)/1024.0)
	}
	fmt.Fprintf(ctx.Out, "\nSnapshot directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	Snapshot string `arg:"" help:"Path or file name of the snapshot to restore."`
	Yes      bool   `help:"Skip the confirmation prompt." short:"y"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Resolve(c.Snapshot)
	if err != nil {
		return err
	}

	if !c.Yes {
		fmt.Fprintln(ctx.Out, "⚠️  WARNING: This will replace the run archive with the snapshot.")
		fmt.Fprintln(ctx.Out, "A snapshot of the current archive will be created first.")
		fmt.Fprintf(ctx.Out, "\nRestore from: %s\n", path)
		fmt.Fprint(ctx.Out, "Continue? [y/N]: ")

		response, err := bufio.NewReader(ctx.In).ReadString('\n')
		if err != nil && response == "" {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	previous, err := mgr.Restore(path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if previous != "" {
		fmt.Fprintf(ctx.Out, "Saved previous archive as: %s\n", filepath.Base(previous))
	}
	fmt.Fprintln(ctx.Out, "✓ Archive restored.")
	return nil
}
