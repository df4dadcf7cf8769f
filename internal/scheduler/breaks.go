package scheduler

import (
	"fmt"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/logger"
	"github.com/julianstephens/daylit-planner/internal/models"
)

// insertBreaks walks the placed work in order and reserves a break right after the
// placement that brings the running tally to the configured interval. An idle gap of
// BreakResetGap or more restarts the tally, and so does a break that would collide.
func (r *run) insertBreaks() error {
	cfg := r.req.Breaks
	if !cfg.Enabled {
		return nil
	}

	var tally time.Duration
	var lastEnd time.Time
	for _, e := range r.tl.Entries() {
		if e.Locked {
			continue
		}
		if !lastEnd.IsZero() && e.Start.Sub(lastEnd) >= constants.BreakResetGap {
			tally = 0
		}
		tally += e.Duration()
		lastEnd = e.End
		if tally < cfg.Interval {
			continue
		}

		worked := tally
		tally = 0
		brk := models.Interval{Start: e.End, End: e.End.Add(cfg.Duration)}
		if !r.req.Horizon.Interval().Contains(brk) || !r.untouched([]models.Interval{brk}) {
			logger.Debug("break skipped", "slot", brk.String(), "worked", worked)
			continue
		}

		id := fmt.Sprintf("break-%d", len(r.breaks)+1)
		if err := r.tl.Reserve(brk, id); err != nil {
			return r.invariant(err)
		}
		r.breaks = append(r.breaks, brk)
		r.record(constants.DecisionBreak, id, fmt.Sprintf("%s after %s of work", brk, worked))
		logger.Debug("break reserved", "slot", brk.String(), "worked", worked)
	}
	return nil
}
