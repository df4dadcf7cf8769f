package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
)

// Runs lists archived runs, newest first as given
func Runs(w io.Writer, runs []models.Run, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	if len(runs) == 0 {
		_, err := io.WriteString(w, "No archived runs.\n")
		return err
	}

	var b strings.Builder
	for _, r := range runs {
		status := fmt.Sprintf("%d/%d placed", r.Stats.Placed, r.Stats.Items)
		style := statusStyle
		if r.Stats.Unscheduled > 0 || r.Stats.Partial > 0 {
			style = warningStyle
		}
		fmt.Fprintf(&b, "%s  %s  %s - %s  %s\n",
			taskStyle.Render(r.ID),
			busyStyle.Render(r.CreatedAt.In(loc).Format(constants.DateTimeFormat)),
			r.Horizon.Start.In(loc).Format(constants.DateFormat),
			r.Horizon.End.In(loc).Format(constants.DateFormat),
			style.Render(status))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
