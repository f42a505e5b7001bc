package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/conformkit/conform/internal/config"
	"github.com/conformkit/conform/internal/engine"
)

// ResourceStartMsg indicates reconciliation of an entry has started.
type ResourceStartMsg struct {
	ID   string
	Time time.Time
}

// ResourceCompleteMsg reports that an entry finished reconciling.
type ResourceCompleteMsg struct {
	Result engine.Result
}

// DoneMsg carries the final summary once every entry has been processed.
type DoneMsg struct {
	Summary *engine.Summary
}

type tickMsg struct{}

// statusPending marks an entry that has not been reconciled yet.
const statusPending engine.Status = "pending"

// statusRunning marks the entry currently being reconciled.
const statusRunning engine.Status = "running"

// Model contains the Bubbletea state for the apply TUI.
type Model struct {
	cfg            *config.Config
	results        map[string]engine.Result
	order          []string
	summary        *engine.Summary
	total          int
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel constructs a TUI model tracking the document's entries in order.
func NewModel(cfg *config.Config, nonInteractive bool) Model {
	m := Model{
		cfg:            cfg,
		results:        make(map[string]engine.Result),
		order:          make([]string, 0),
		nonInteractive: nonInteractive,
	}

	if cfg != nil {
		for _, entry := range cfg.Resources {
			if _, exists := m.results[entry.ID]; !exists {
				m.results[entry.ID] = engine.Result{ResourceID: entry.ID, Type: entry.Type, Status: statusPending}
				m.order = append(m.order, entry.ID)
				m.total++
			}
		}
	}

	return m
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalResources returns how many entries the model tracks.
func (m Model) TotalResources() int {
	return m.total
}

// CompletedResources returns how many entries finished reconciling.
func (m Model) CompletedResources() int {
	return m.completed
}

// IsFinished reports whether reconciliation has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Summary returns the final summary, or nil while entries are still running.
func (m Model) Summary() *engine.Summary {
	return m.summary
}

func (m *Model) ensureEntry(id string) {
	if id == "" {
		return
	}
	if _, exists := m.results[id]; !exists {
		m.results[id] = engine.Result{ResourceID: id, Status: statusPending}
		m.order = append(m.order, id)
		m.total++
	}
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}
