package outcomes

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daylit-planner/internal/adapter"
	"github.com/julianstephens/daylit-planner/internal/constants"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	taskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model shows the outcomes of one archived run
type Model struct {
	viewport viewport.Model
	RunID    string
	Result   *adapter.ResultDocument
	loc      *time.Location
}

func New(loc *time.Location, width, height int) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{viewport: viewport.New(width, height), loc: loc}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Result == nil {
		return "No run selected. Press enter on a run to open it."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.render()
}

func (m *Model) SetResult(id string, res adapter.ResultDocument) {
	m.RunID = id
	m.Result = &res
	m.render()
	m.viewport.GotoTop()
}

func (m *Model) Clear() {
	m.RunID = ""
	m.Result = nil
	m.viewport.SetContent("")
}

func (m *Model) render() {
	if m.Result == nil {
		return
	}
	m.viewport.SetContent(Render(*m.Result, m.loc))
}

// Render lays out a result document, one line per placed chunk
func Render(res adapter.ResultDocument, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Horizon %s - %s", stamp(res.Horizon.Start, loc), stamp(res.Horizon.End, loc))))
	b.WriteString("\n")
	s := res.Stats
	fmt.Fprintf(&b, "%d items: %d placed, %d partial, %d unscheduled, %d bumps\n\n",
		s.Items, s.Placed, s.Partial, s.Unscheduled, s.Bumps)

	for _, o := range res.Outcomes {
		name := o.Name
		if o.Date != "" {
			name += " (" + o.Date + ")"
		}
		status := fmt.Sprintf("%s %d/%d min", o.Status, o.PlacedMin, o.RequiredMin)
		if o.Bumped {
			status += ", moved"
		}
		if o.Reason != "" {
			status += ", " + o.Reason
		}
		style := statusStyle
		if o.Status != "placed" {
			style = warningStyle
		}
		fmt.Fprintf(&b, "%s %s\n", taskStyle.Render(name), style.Render(status))
		for _, c := range o.Chunks {
			fmt.Fprintf(&b, "  %s\n", timeStyle.Render(stamp(c.Start, loc)+" - "+clock(c.End, loc)))
		}
	}
	return b.String()
}

// stamp formats an RFC3339 timestamp in loc, falling back to the raw text
func stamp(v string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return t.In(loc).Format("Mon " + constants.DateTimeFormat)
}

func clock(v string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return t.In(loc).Format(constants.TimeFormat)
}
