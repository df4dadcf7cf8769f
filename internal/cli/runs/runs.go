package runs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/render"
	"github.com/julianstephens/daylit-planner/internal/tui"
)

func location(ctx *cli.Context) *time.Location {
	if ctx.Config == nil {
		return time.Local
	}
	loc, err := ctx.Config.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

type ListCmd struct {
	Limit  int    `help:"Show at most this many runs (0 for all)." default:"20"`
	Format string `help:"Output format (text or json)." enum:"text,json" default:"text"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx.Context(), c.Limit)
	if err != nil {
		return err
	}

	if c.Format == "json" {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	return render.Runs(ctx.Out, runs, location(ctx))
}

type ShowCmd struct {
	ID    string `arg:"" help:"Run ID."`
	Input bool   `help:"Print the archived input document instead of the result."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	run, err := store.GetRun(ctx.Context(), c.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", c.ID, err)
	}

	payload := run.Result
	if c.Input {
		payload = run.Input
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return fmt.Errorf("archived payload is not valid JSON: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(ctx.Out)
	return err
}

type DeleteCmd struct {
	ID string `arg:"" help:"Run ID."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	if err := store.DeleteRun(ctx.Context(), c.ID); err != nil {
		return fmt.Errorf("%s: %w", c.ID, err)
	}
	fmt.Fprintf(ctx.Out, "Deleted run %s\n", c.ID)
	return nil
}

type BrowseCmd struct{}

func (c *BrowseCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.NewModel(ctx.Context(), store, location(ctx)),
		tea.WithAltScreen(), tea.WithContext(ctx.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
