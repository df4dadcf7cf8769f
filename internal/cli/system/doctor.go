package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/daylit-planner/internal/cli"
	"github.com/julianstephens/daylit-planner/internal/config"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(ctx *cli.Context) error
	// opensStore failing skips every needsStore check after it
	opensStore bool
	needsStore bool
}

var checks = []check{
	{name: "Config valid", run: checkConfig},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Archive reachable", run: checkStoreReachable, opensStore: true},
	{name: "Archive readable", run: checkStoreReadable, needsStore: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	failed := 0
	storeOK := true
	for _, c := range checks {
		if c.needsStore && !storeOK {
			fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (archive not reachable)\n", c.name)
			continue
		}
		if err := c.run(ctx); err != nil {
			fmt.Fprintf(ctx.Out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			failed++
			if c.opensStore {
				storeOK = false
			}
			continue
		}
		fmt.Fprintf(ctx.Out, "✓ %s: OK\n", c.name)
	}

	fmt.Fprintln(ctx.Out)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(ctx.Out, "All checks passed.")
	return nil
}

func checkConfig(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg.Validate()
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Config == nil {
		return nil
	}
	if _, err := ctx.Config.Location(); err != nil {
		return fmt.Errorf("timezone %q cannot be loaded: %w", ctx.Config.Timezone, err)
	}
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	_, err := ctx.Store()
	return err
}

func checkStoreReadable(ctx *cli.Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	_, err = store.ListRuns(ctx.Context(), 1)
	return err
}
