// Package engine drives the reconciliation lifecycle over the entries of a
// desired-state document: verify reports drift, apply corrects it, and show
// renders probed snapshots. Entries run sequentially in document order.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/conformkit/conform/internal/config"
	"github.com/conformkit/conform/internal/logger"
	"github.com/conformkit/conform/internal/resources"
	conformerrors "github.com/conformkit/conform/pkg/errors"
	"github.com/conformkit/conform/pkg/resource"
)

// Executor runs lifecycle operations for every entry of a document.
type Executor struct {
	logger *logger.Logger
}

// NewExecutor creates a new executor instance.
func NewExecutor(log *logger.Logger) *Executor {
	return &Executor{logger: log}
}

// Verify probes every entry and reports its drift status without mutating
// anything.
func (e *Executor) Verify(ctx context.Context, cfg *config.Config) *Summary {
	start := time.Now()
	summary := &Summary{}

	for _, entry := range cfg.Resources {
		entryStart := time.Now()
		result := e.verifyEntry(ctx, entry)
		result.Duration = time.Since(entryStart)
		result.Timestamp = time.Now()
		summary.Add(result)

		e.logger.WithFields(map[string]any{
			"resource": entry.ID,
			"type":     entry.Type,
			"status":   string(result.Status),
		}).Debug("entry verified")
	}

	summary.Duration = time.Since(start)
	return summary
}

// Apply verifies every entry and corrects the ones that drifted.
func (e *Executor) Apply(ctx context.Context, cfg *config.Config) *Summary {
	start := time.Now()
	summary := &Summary{}

	for _, entry := range cfg.Resources {
		entryStart := time.Now()
		result := e.applyEntry(ctx, entry)
		result.Duration = time.Since(entryStart)
		result.Timestamp = time.Now()
		summary.Add(result)

		e.logger.WithFields(map[string]any{
			"resource": entry.ID,
			"type":     entry.Type,
			"status":   string(result.Status),
		}).Debug("entry applied")
	}

	summary.Duration = time.Since(start)
	return summary
}

// Snapshot pairs a probed resource state with its document entry.
type Snapshot struct {
	ResourceID string
	Type       string
	State      resource.Resource
}

// Show probes every entry and returns the populated snapshots.
func (e *Executor) Show(ctx context.Context, cfg *config.Config) ([]Snapshot, error) {
	snapshots := make([]Snapshot, 0, len(cfg.Resources))
	for _, entry := range cfg.Resources {
		rec, err := e.buildReconciler(entry)
		if err != nil {
			return snapshots, err
		}
		state, err := rec.Get(ctx)
		if err != nil {
			return snapshots, conformerrors.NewResourceError(entry.ID, err)
		}
		snapshots = append(snapshots, Snapshot{
			ResourceID: entry.ID,
			Type:       entry.Type,
			State:      state,
		})
	}
	return snapshots, nil
}

func (e *Executor) verifyEntry(ctx context.Context, entry config.Entry) Result {
	result := Result{ResourceID: entry.ID, Type: entry.Type}

	rec, err := e.buildReconciler(entry)
	if err != nil {
		return failed(result, err)
	}

	mismatches, err := rec.Compare(ctx)
	if err != nil {
		return failed(result, err)
	}

	result.Mismatches = mismatches
	result.Reasons = resource.ReasonsFor(rec.TypeName(), mismatches)

	switch {
	case len(mismatches) == 0:
		result.Status = StatusSatisfied
		result.Message = "in desired state"
	case isMissing(mismatches):
		result.Status = StatusMissing
		result.Message = "resource not present"
	default:
		result.Status = StatusDrifted
		result.Message = fmt.Sprintf("%d propert%s drifted", len(mismatches), pluralY(len(mismatches)))
	}
	return result
}

func (e *Executor) applyEntry(ctx context.Context, entry config.Entry) Result {
	result := e.verifyEntry(ctx, entry)
	if result.Status == StatusSatisfied || result.Status == StatusFailed {
		return result
	}

	rec, err := e.buildReconciler(entry)
	if err != nil {
		return failed(result, err)
	}
	if err := rec.Set(ctx); err != nil {
		return failed(result, err)
	}

	result.Status = StatusApplied
	result.Message = fmt.Sprintf("corrected %d propert%s", len(result.Mismatches), pluralY(len(result.Mismatches)))
	return result
}

// buildReconciler instantiates the entry's resource type, decodes its
// properties, validates them, and wraps the instance in a reconciler.
func (e *Executor) buildReconciler(entry config.Entry) (*resource.Reconciler, error) {
	res, err := resources.New(entry.Type)
	if err != nil {
		return nil, err
	}

	if err := entry.DecodeProperties(res); err != nil {
		return nil, conformerrors.NewResourceError(entry.ID, err)
	}

	if err := config.GetValidator().Struct(res); err != nil {
		return nil, conformerrors.NewResourceError(entry.ID, fmt.Errorf("invalid properties: %w", err))
	}

	if base, ok := resource.BaseOf(res); ok {
		base.ExcludedProperties = entry.Exclude
		base.ZeroEnumAsUnset = entry.ZeroEnumAsUnset
	}

	return resource.New(res, resource.WithLogger(e.logger.Zerolog()))
}

// isMissing reports whether the drift is existence itself: a presence field
// expected present while the probe saw nothing, or every observed value empty.
func isMissing(mismatches []resource.Mismatch) bool {
	allNil := len(mismatches) > 0
	for _, m := range mismatches {
		want, wantOk := m.Expected.(resource.Ensure)
		got, gotOk := m.Actual.(resource.Ensure)
		if wantOk && gotOk && want == resource.EnsurePresent && got == resource.EnsureAbsent {
			return true
		}
		if m.Actual != nil {
			allNil = false
		}
	}
	return allNil
}

func failed(result Result, err error) Result {
	result.Status = StatusFailed
	result.Error = err
	result.Message = err.Error()
	return result
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
