package runlist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
)

type OpenRunMsg struct {
	ID string
}

type DeleteRunMsg struct {
	ID string
}

type Item struct {
	Run models.Run
	loc *time.Location
}

func (i Item) Title() string {
	return fmt.Sprintf("%s  %s", i.Run.CreatedAt.In(i.loc).Format(constants.DateTimeFormat), i.Run.ID)
}

func (i Item) Description() string {
	s := i.Run.Stats
	desc := fmt.Sprintf("%s - %s | %d/%d placed",
		i.Run.Horizon.Start.In(i.loc).Format(constants.DateFormat),
		i.Run.Horizon.End.In(i.loc).Format(constants.DateFormat),
		s.Placed, s.Items)
	if s.Partial > 0 || s.Unscheduled > 0 {
		desc += fmt.Sprintf(" | %d partial, %d unscheduled", s.Partial, s.Unscheduled)
	}
	return desc
}

func (i Item) FilterValue() string { return i.Run.ID }

type KeyMap struct {
	Open   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
	loc  *time.Location
}

func New(runs []models.Run, loc *time.Location, width, height int) Model {
	if loc == nil {
		loc = time.Local
	}
	l := list.New(items(runs, loc), list.NewDefaultDelegate(), width, height)
	l.Title = "Runs"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Open, keys.Delete}
	}
	return Model{list: l, keys: keys, loc: loc}
}

func items(runs []models.Run, loc *time.Location) []list.Item {
	out := make([]list.Item, len(runs))
	for i, r := range runs {
		out[i] = Item{Run: r, loc: loc}
	}
	return out
}

func (m *Model) SetRuns(runs []models.Run) tea.Cmd {
	return m.list.SetItems(items(runs, m.loc))
}

// Selected returns the highlighted run ID, empty when the list is empty
func (m Model) Selected() string {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Run.ID
	}
	return ""
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Open):
			if id := m.Selected(); id != "" {
				return m, func() tea.Msg { return OpenRunMsg{ID: id} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if id := m.Selected(); id != "" {
				return m, func() tea.Msg { return DeleteRunMsg{ID: id} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No archived runs.\n  Save one with 'plan --save'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
