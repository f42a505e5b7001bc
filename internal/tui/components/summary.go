package components

import (
	"fmt"
	"strings"

	"github.com/conformkit/conform/internal/engine"
)

// SummaryData aggregates counts for rendering the closing summary.
type SummaryData struct {
	Total     int
	Completed int
	Finished  bool
	Cancelled bool
	Summary   *engine.Summary
}

// Summary renders the textual reconciliation summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Resources: %d/%d reconciled", s.data.Completed, s.data.Total))
	}

	if s.data.Cancelled {
		lines = append(lines, "Reconciliation cancelled")
	} else if s.data.Finished && s.data.Summary != nil {
		sum := s.data.Summary
		counts := make([]string, 0, 4)
		if sum.Satisfied > 0 {
			counts = append(counts, fmt.Sprintf("%d satisfied", sum.Satisfied))
		}
		if sum.Applied > 0 {
			counts = append(counts, fmt.Sprintf("%d applied", sum.Applied))
		}
		if sum.Drifted+sum.Missing > 0 {
			counts = append(counts, fmt.Sprintf("%d drifted", sum.Drifted+sum.Missing))
		}
		if sum.Failed > 0 {
			counts = append(counts, fmt.Sprintf("%d failed", sum.Failed))
		}
		if len(counts) > 0 {
			lines = append(lines, strings.Join(counts, ", "))
		}
		if sum.AllSatisfied() {
			lines = append(lines, "System matches the desired state")
		} else if sum.Failed > 0 {
			lines = append(lines, "Reconciliation finished with failures")
		}
	}

	return strings.Join(lines, "\n")
}
