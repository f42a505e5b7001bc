package engine

import (
	"time"

	"github.com/conformkit/conform/pkg/resource"
)

// Status classifies the outcome of reconciling one resource entry.
type Status string

const (
	// StatusSatisfied means the live system already matches the document.
	StatusSatisfied Status = "satisfied"
	// StatusDrifted means the resource exists but at least one property differs.
	StatusDrifted Status = "drifted"
	// StatusMissing means the resource should exist and does not.
	StatusMissing Status = "missing"
	// StatusApplied means drift was found and corrected.
	StatusApplied Status = "applied"
	// StatusFailed means the lifecycle call returned an error.
	StatusFailed Status = "failed"
)

// Result captures the outcome of reconciling a single entry.
type Result struct {
	ResourceID string
	Type       string
	Status     Status
	Mismatches []resource.Mismatch
	Reasons    []resource.Reason
	Message    string
	Error      error
	Duration   time.Duration
	Timestamp  time.Time
}

// Summary aggregates entry results with per-status counts.
type Summary struct {
	Total     int
	Satisfied int
	Drifted   int
	Missing   int
	Applied   int
	Failed    int
	Results   []Result
	Duration  time.Duration
}

// Add appends a result and updates the counters.
func (s *Summary) Add(result Result) {
	s.Results = append(s.Results, result)
	s.Total++
	switch result.Status {
	case StatusSatisfied:
		s.Satisfied++
	case StatusDrifted:
		s.Drifted++
	case StatusMissing:
		s.Missing++
	case StatusApplied:
		s.Applied++
	case StatusFailed:
		s.Failed++
	}
}

// AllSatisfied reports whether every entry matched or was brought to match.
func (s *Summary) AllSatisfied() bool {
	return s.Failed == 0 && s.Drifted == 0 && s.Missing == 0
}

// ExitCode maps the summary onto a process exit code: 0 when compliant,
// 1 on failures, 2 when drift remains.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	if s.Drifted > 0 || s.Missing > 0 {
		return 2
	}
	return 0
}
