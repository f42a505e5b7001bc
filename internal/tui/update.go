package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/conformkit/conform/internal/engine"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case ResourceStartMsg:
		m.ensureEntry(msg.ID)
		result := m.results[msg.ID]
		result.Status = statusRunning
		m.results[msg.ID] = result
		return m, nil
	case ResourceCompleteMsg:
		id := msg.Result.ResourceID
		if id == "" {
			return m, nil
		}
		m.ensureEntry(id)
		existing := m.results[id]
		alreadyDone := existing.Status != statusPending && existing.Status != statusRunning
		m.results[id] = msg.Result
		if !alreadyDone {
			m.completed++
			m.markFinishedIfComplete()
		}
		return m, nil
	case DoneMsg:
		m.summary = msg.Summary
		m.finished = true
		if m.nonInteractive {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		case tea.KeyEnter, tea.KeyEsc:
			if m.finished {
				return m, tea.Quit
			}
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}

// Results returns the tracked results in document order.
func (m Model) Results() []engine.Result {
	results := make([]engine.Result, 0, len(m.order))
	for _, id := range m.order {
		results = append(results, m.results[id])
	}
	return results
}
