package system

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/julianstephens/daylit-planner/internal/backup"
	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/config"
	"github.com/julianstephens/daylit-planner/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Overwrite an existing config file and delete an existing SQLite or JSON archive."`
	Source string `help:"Archive path or connection string to copy runs from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := c.writeConfig(ctx); err != nil {
		return err
	}

	target := ctx.StoreTarget()
	if c.Force && !postgres.IsConnString(target) {
		if err := c.removeArchive(ctx, target); err != nil {
			return err
		}
	}

	store, err := cli.NewStore(target)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return err
	}
	ctx.SetStore(store)
	fmt.Fprintf(ctx.Out, "Initialized run archive at: %s\n", store.GetConfigPath())

	if c.Source != "" {
		fmt.Fprintf(ctx.Out, "Copying runs from: %s\n", c.Source)
		n, err := c.copyRuns(ctx)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Copied %d run(s).\n", n)
	}
	return nil
}

func (c *InitCmd) writeConfig(ctx *cli.Context) error {
	path, err := cli.ExpandPath(ctx.ConfigPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !c.Force {
		fmt.Fprintf(ctx.Out, "Using existing config at: %s\n", path)
		return nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to access config: %w", err)
	}

	cfg := ctx.Config
	if cfg == nil || c.Force {
		cfg = config.Default()
		cfg.Storage = ctx.StoreTarget()
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	ctx.Config = cfg
	fmt.Fprintf(ctx.Out, "Wrote config to: %s\n", path)
	return nil
}

func (c *InitCmd) removeArchive(ctx *cli.Context, target string) error {
	path, err := cli.ExpandPath(target)
	if err != nil {
		return err
	}
	if c.Source != "" {
		if src, err := filepath.Abs(c.Source); err == nil {
			if dst, err := filepath.Abs(path); err == nil && src == dst {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", path)
			}
		}
	}

	if err := ctx.Close(); err != nil {
		return fmt.Errorf("failed to close existing archive: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		snapshot, err := backup.NewManager(path).Create()
		if err != nil {
			return fmt.Errorf("failed to snapshot existing archive: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Saved snapshot of existing archive: %s\n", snapshot)
	}
	if err := os.Remove(path); err == nil {
		fmt.Fprintf(ctx.Out, "Deleted existing archive at: %s\n", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete existing archive: %w", err)
	}
	return nil
}

// copyRuns moves every run of the source archive into the configured one, oldest first
func (c *InitCmd) copyRuns(ctx *cli.Context) (int, error) {
	source, err := cli.NewStore(c.Source)
	if err != nil {
		return 0, err
	}
	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source archive: %w", err)
	}
	defer source.Close()

	dest, err := ctx.Store()
	if err != nil {
		return 0, err
	}

	summaries, err := source.ListRuns(ctx.Context(), 0)
	if err != nil {
		return 0, err
	}
	copied := 0
	for i := len(summaries) - 1; i >= 0; i-- {
		run, err := source.GetRun(ctx.Context(), summaries[i].ID)
		if err != nil {
			return copied, err
		}
		if err := dest.SaveRun(ctx.Context(), run); err != nil {
			return copied, fmt.Errorf("run %s: %w", run.ID, err)
		}
		copied++
	}
	return copied, nil
}
