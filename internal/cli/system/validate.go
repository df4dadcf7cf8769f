package system

import (
	"fmt"

	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/validation"
)

type ValidateCmd struct {
	Input  string   `arg:"" help:"Input document (JSON), or '-' for stdin." default:"-"`
	ICS    []string `help:"iCalendar file whose events are imported as locked events. Repeatable." name:"ics" type:"path"`
	AllDay bool     `help:"Treat all-day calendar events as busy." name:"all-day"`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	in, err := ctx.LoadInput(cli.InputOptions{Path: c.Input, ICS: c.ICS, IncludeAllDay: c.AllDay})
	if err != nil {
		return err
	}

	req := in.Request
	res := validation.New().Check(validation.Input{
		Tasks:          req.Tasks,
		LockedEvents:   req.LockedEvents,
		FlexibleEvents: req.FlexibleEvents,
		ActiveHours:    req.ActiveHours,
		Horizon:        req.Horizon,
	})
	fmt.Fprint(ctx.Out, res.FormatReport())
	if len(res.Issues) == 0 && len(res.Conflicts) == 0 {
		fmt.Fprintln(ctx.Out)
	}

	if res.HasIssues() {
		return fmt.Errorf("%w: %d problem(s) found", validation.ErrInvalidInput, len(res.Issues))
	}
	return nil
}
