package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daylit-planner/internal/adapter"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/storage"
	"github.com/julianstephens/daylit-planner/internal/tui/components/outcomes"
	"github.com/julianstephens/daylit-planner/internal/tui/components/runlist"
)

type SessionState int

const (
	StateRuns SessionState = iota
	StateDetail
	StateConfirmDelete
)

type runsLoadedMsg struct {
	runs []models.Run
}

type runLoadedMsg struct {
	id     string
	result adapter.ResultDocument
}

type runDeletedMsg struct {
	id string
}

type errMsg struct {
	err error
}

// Model browses the run archive: a run list and the outcomes of the opened run
type Model struct {
	ctx           context.Context
	store         storage.Provider
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	runList       runlist.Model
	detail        outcomes.Model
	runToDeleteID string
	status        string
	err           error
	quitting      bool
	width         int
	height        int
}

func NewModel(ctx context.Context, store storage.Provider, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{
		ctx:     ctx,
		store:   store,
		state:   StateRuns,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		runList: runlist.New(nil, loc, 0, 0),
		detail:  outcomes.New(loc, 0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadRuns()
}

func (m Model) loadRuns() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.store.ListRuns(m.ctx, 0)
		if err != nil {
			return errMsg{err}
		}
		return runsLoadedMsg{runs}
	}
}

func (m Model) loadRun(id string) tea.Cmd {
	return func() tea.Msg {
		run, err := m.store.GetRun(m.ctx, id)
		if err != nil {
			return errMsg{fmt.Errorf("%s: %w", id, err)}
		}
		var res adapter.ResultDocument
		if err := json.Unmarshal(run.Result, &res); err != nil {
			return errMsg{fmt.Errorf("%s: archived result is not valid: %w", id, err)}
		}
		return runLoadedMsg{id: id, result: res}
	}
}

func (m Model) deleteRun(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.DeleteRun(m.ctx, id); err != nil {
			return errMsg{fmt.Errorf("%s: %w", id, err)}
		}
		return runDeletedMsg{id}
	}
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateConfirmDelete:
		return []key.Binding{m.keys.Confirm, m.keys.Cancel}
	case StateDetail:
		return []key.Binding{m.keys.Tab, m.keys.Back, m.keys.Up, m.keys.Down, m.keys.Quit}
	}
	return []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Tab, m.keys.Back, m.keys.Quit, m.keys.Help},
		{m.keys.Up, m.keys.Down, m.keys.Refresh},
	}
}

// State reports the visible pane
func (m Model) State() SessionState {
	return m.state
}
