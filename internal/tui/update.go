package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/daylit-planner/internal/tui/components/runlist"
)

// tabs, help and status line
const chromeHeight = 4

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.runList.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		m.detail.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		return m, nil

	case runsLoadedMsg:
		m.err = nil
		return m, m.runList.SetRuns(msg.runs)

	case runLoadedMsg:
		m.err = nil
		m.detail.SetResult(msg.id, msg.result)
		m.state = StateDetail
		return m, nil

	case runDeletedMsg:
		m.status = "Deleted run " + msg.id
		if m.detail.RunID == msg.id {
			m.detail.Clear()
		}
		m.state = StateRuns
		return m, m.loadRuns()

	case errMsg:
		m.err = msg.err
		return m, nil

	case runlist.OpenRunMsg:
		return m, m.loadRun(msg.ID)

	case runlist.DeleteRunMsg:
		m.runToDeleteID = msg.ID
		m.previousState = m.state
		m.state = StateConfirmDelete
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StateConfirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			id := m.runToDeleteID
			m.runToDeleteID = ""
			return m, m.deleteRun(id)
		case key.Matches(msg, m.keys.Cancel):
			m.runToDeleteID = ""
			m.state = m.previousState
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		if m.state == StateRuns && m.detail.Result != nil {
			m.state = StateDetail
		} else {
			m.state = StateRuns
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateDetail:
		if key.Matches(msg, m.keys.Back) {
			m.state = StateRuns
			return m, nil
		}
		m.detail, cmd = m.detail.Update(msg)
	default:
		if key.Matches(msg, m.keys.Refresh) {
			m.status = ""
			return m, m.loadRuns()
		}
		m.runList, cmd = m.runList.Update(msg)
	}
	return m, cmd
}
