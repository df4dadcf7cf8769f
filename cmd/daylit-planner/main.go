package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/cli/backups"
	"github.com/julianstephens/daylit-planner/internal/cli/plans"
	"github.com/julianstephens/daylit-planner/internal/cli/runs"
	"github.com/julianstephens/daylit-planner/internal/cli/system"
	"github.com/julianstephens/daylit-planner/internal/config"
	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/errors"
	"github.com/julianstephens/daylit-planner/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`
	Debug   bool   `help:"Echo debug logs to stderr."`

	Init     system.InitCmd     `cmd:"" help:"Write a default config and initialize the run archive."`
	Plan     plans.PlanCmd      `cmd:"" help:"Schedule the tasks and events of an input document."`
	Validate system.ValidateCmd `cmd:"" help:"Report every problem in an input document."`
	Expand   system.ExpandCmd   `cmd:"" help:"List the occurrences of repeating tasks and events."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Runs     struct {
		List   runs.ListCmd   `cmd:"" help:"List archived runs." default:"1"`
		Show   runs.ShowCmd   `cmd:"" help:"Print an archived result or input."`
		Delete runs.DeleteCmd `cmd:"" help:"Delete an archived run."`
		Browse runs.BrowseCmd `cmd:"" help:"Browse archived runs interactively."`
	} `cmd:"" help:"Manage archived runs."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Snapshot the run archive." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List archive snapshots."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Replace the run archive with a snapshot."`
	} `cmd:"" help:"Manage snapshots of a SQLite or JSON run archive."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Deterministic task scheduler: splits tasks around fixed commitments within active hours"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}

	logDir := cfg.Log.Dir
	if logDir != "" {
		if logDir, err = cli.ExpandPath(logDir); err != nil {
			errors.Fatal(err)
		}
	}
	if err := logger.Init(logger.Config{
		Debug:  CLI.Debug || cfg.Log.Debug,
		Dir:    logDir,
		JSON:   cfg.Log.JSON,
		Stderr: os.Stderr,
	}); err != nil {
		errors.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	appCtx := cli.NewContext(ctx, CLI.Config, cfg)

	err = kctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("failed to close run archive", "error", cerr)
	}
	stop()
	errors.Fatal(err)
}
