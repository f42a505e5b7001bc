package tui

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conformkit/conform/internal/engine"
)

func TestViewShowsDocumentName(t *testing.T) {
	m := NewModel(testConfig(), false)
	view := m.View()

	require.Contains(t, view, "workstation")
	require.Contains(t, view, "dotfiles")
	require.Contains(t, view, "bashrc_alias")
}

func TestViewShowsResultMessages(t *testing.T) {
	m := NewModel(testConfig(), false)
	updated, _ := m.Update(ResourceCompleteMsg{Result: engine.Result{
		ResourceID: "dotfiles",
		Status:     engine.StatusDrifted,
		Message:    "1 property drifted",
	}})

	view := updated.(Model).View()
	require.Contains(t, view, "1 property drifted")
}

func TestViewShowsSummaryCounts(t *testing.T) {
	m := NewModel(testConfig(), false)
	updated, _ := m.Update(ResourceCompleteMsg{Result: engine.Result{ResourceID: "dotfiles", Status: engine.StatusApplied}})
	updated, _ = updated.(Model).Update(ResourceCompleteMsg{Result: engine.Result{ResourceID: "bashrc_alias", Status: engine.StatusSatisfied}})
	updated, _ = updated.(Model).Update(DoneMsg{Summary: &engine.Summary{
		Total:     2,
		Satisfied: 1,
		Applied:   1,
	}})

	view := updated.(Model).View()
	require.Contains(t, view, "1 satisfied")
	require.Contains(t, view, "1 applied")
	require.Contains(t, view, "matches the desired state")
}

func TestStatusIconsDistinct(t *testing.T) {
	icons := map[engine.Status]string{
		engine.StatusSatisfied: StatusIcon(engine.StatusSatisfied),
		engine.StatusApplied:   StatusIcon(engine.StatusApplied),
		engine.StatusDrifted:   StatusIcon(engine.StatusDrifted),
		engine.StatusMissing:   StatusIcon(engine.StatusMissing),
		engine.StatusFailed:    StatusIcon(engine.StatusFailed),
		statusPending:          StatusIcon(statusPending),
	}
	for status, icon := range icons {
		require.NotEmpty(t, icon, "icon for %s", status)
	}
}
