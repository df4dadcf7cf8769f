package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/daylit-planner/internal/adapter"
	"github.com/julianstephens/daylit-planner/internal/cli"
	apperrors "github.com/julianstephens/daylit-planner/internal/errors"
	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/render"
	"github.com/julianstephens/daylit-planner/internal/watch"
)

type PlanCmd struct {
	Input  string   `arg:"" help:"Input document (JSON), or '-' for stdin." default:"-"`
	ICS    []string `help:"iCalendar file whose events are imported as locked events. Repeatable." name:"ics" type:"path"`
	AllDay bool     `help:"Treat all-day calendar events as busy." name:"all-day"`
	Format string   `help:"Output format (text or json)." enum:"text,json" default:"text"`
	Save   bool     `help:"Archive the run."`
	Watch  bool     `help:"Plan again whenever the input or a calendar file changes."`
}

func (c *PlanCmd) Run(ctx *cli.Context) error {
	if !c.Watch {
		return c.plan(ctx)
	}
	if c.Input == "-" {
		return fmt.Errorf("--watch needs an input file, not stdin")
	}

	if err := c.plan(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprintln(ctx.Out, apperrors.Format(err))
	}

	paths := append([]string{c.Input}, c.ICS...)
	for i, p := range paths {
		expanded, err := cli.ExpandPath(p)
		if err != nil {
			return err
		}
		paths[i] = expanded
	}
	logger.Info("watching for changes", "files", len(paths))
	fmt.Fprintf(ctx.Out, "\nWatching %s for changes (Ctrl+C to stop)\n", filepath.Base(c.Input))

	last, _ := c.hash(ctx)
	return watch.Files(ctx.Context(), paths, watch.DefaultDelay, func() {
		// skip saves that did not change the input
		if hash, err := c.hash(ctx); err == nil {
			if hash == last {
				logger.Debug("input unchanged, skipping")
				return
			}
			last = hash
		}
		fmt.Fprintln(ctx.Out)
		if err := c.plan(ctx); err != nil {
			fmt.Fprintln(ctx.Out, apperrors.Format(err))
		}
	})
}

// hash fingerprints the input document and calendars
func (c *PlanCmd) hash(ctx *cli.Context) (string, error) {
	in, err := ctx.LoadInput(c.inputOptions())
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.Write(in.Raw)
	for _, ev := range in.Request.LockedEvents {
		fmt.Fprintf(&buf, "|%s %d %d", ev.ID, ev.Start.Unix(), ev.End.Unix())
	}
	return models.HashInput(buf.Bytes()), nil
}

func (c *PlanCmd) inputOptions() cli.InputOptions {
	return cli.InputOptions{Path: c.Input, ICS: c.ICS, IncludeAllDay: c.AllDay}
}

func (c *PlanCmd) plan(ctx *cli.Context) error {
	in, err := ctx.LoadInput(c.inputOptions())
	if err != nil {
		return err
	}

	res, err := ctx.Scheduler.Schedule(ctx.Context(), in.Request)
	if err != nil {
		return err
	}
	logger.Info("schedule computed",
		"items", res.Stats.Items, "placed", res.Stats.Placed,
		"partial", res.Stats.Partial, "unscheduled", res.Stats.Unscheduled)

	doc := adapter.NewResultDocument(res, in.Location)
	if c.Save {
		id, err := saveRun(ctx, in, res, doc)
		if err != nil {
			return err
		}
		doc.RunID = id
	}

	if c.Format == "json" {
		return doc.Encode(ctx.Out)
	}
	if err := render.Schedule(ctx.Out, res, in.Location); err != nil {
		return err
	}
	if doc.RunID != "" {
		fmt.Fprintf(ctx.Out, "Saved run %s\n", doc.RunID)
	}
	return nil
}

func saveRun(ctx *cli.Context, in *cli.Input, res models.ScheduleResult, doc adapter.ResultDocument) (string, error) {
	store, err := ctx.Store()
	if err != nil {
		return "", err
	}

	run := models.NewRun(res.Horizon, res.Stats, in.Raw, nil)
	doc.RunID = run.ID
	result, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	run.Result = result

	if err := store.SaveRun(ctx.Context(), run); err != nil {
		return "", err
	}
	logger.Info("run archived", "id", run.ID, "store", store.GetConfigPath())
	return run.ID, nil
}
