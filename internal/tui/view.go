package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/conformkit/conform/internal/engine"
	"github.com/conformkit/conform/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("Conform • %s", m.title()))
	sections = append(sections, title)

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	listComp := components.NewResourceList(m.order, m.results)
	entries := listComp.Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Resources"))
		sections = append(sections, renderResourceEntries(entries))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.total,
		Completed: m.completed,
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Summary:   m.summary,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderResourceEntries(entries []components.ResourceEntry) string {
	var lines []string
	for _, entry := range entries {
		res := entry.Result
		icon := StatusIcon(res.Status)
		line := fmt.Sprintf(" %s %s", icon, entry.ID)
		if strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s: %s", line, res.Message)
		}
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	if m.cfg != nil && strings.TrimSpace(m.cfg.Name) != "" {
		return m.cfg.Name
	}
	return "Reconciliation"
}

// StatusIcon returns the glyph representing a reconciliation status.
func StatusIcon(status engine.Status) string {
	switch status {
	case engine.StatusSatisfied:
		return successStyle.Render("✓")
	case engine.StatusApplied:
		return successStyle.Render("↻")
	case statusRunning:
		return runningStyle.Render("⏳")
	case engine.StatusFailed:
		return failureStyle.Render("✗")
	case engine.StatusDrifted:
		return driftedStyle.Render("≠")
	case engine.StatusMissing:
		return driftedStyle.Render("∅")
	default:
		return pendingStyle.Render("…")
	}
}
