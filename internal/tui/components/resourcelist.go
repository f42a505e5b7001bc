package components

import (
	"github.com/conformkit/conform/internal/engine"
)

// ResourceEntry pairs an entry ID with its current result for rendering.
type ResourceEntry struct {
	ID     string
	Result engine.Result
}

// ResourceList renders the document's entries with their statuses.
type ResourceList struct {
	entries []ResourceEntry
}

// NewResourceList constructs a resource list component in document order.
func NewResourceList(order []string, results map[string]engine.Result) ResourceList {
	entries := make([]ResourceEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, ResourceEntry{ID: id, Result: results[id]})
	}
	return ResourceList{entries: entries}
}

// Entries returns the ordered entries.
func (r ResourceList) Entries() []ResourceEntry {
	clone := make([]ResourceEntry, len(r.entries))
	copy(clone, r.entries)
	return clone
}
