package resource

import "fmt"

// DesiredState maps field names to the values the caller wants enforced.
// Only enforceable fields with a set value appear in it.
type DesiredState map[string]any

// ActualState maps field names to the values the probe observed. A missing
// key (or a nil value) means "not set / use default".
type ActualState map[string]any

// Ensure expresses whether the configured facet of a resource should exist.
// The empty string means the resource never declared an opinion.
type Ensure string

const (
	// EnsurePresent requests the facet to exist.
	EnsurePresent Ensure = "present"
	// EnsureAbsent requests the facet to be removed.
	EnsureAbsent Ensure = "absent"
)

// Mismatch records one enforceable field whose desired value differs from the
// observed value. An empty mismatch set means the resource is compliant.
type Mismatch struct {
	Property string
	Expected any
	Actual   any
}

// Reason is the machine-readable explanation for one mismatch, surfaced on
// the snapshot returned by Get.
type Reason struct {
	Code   string `yaml:"code" json:"code"`
	Phrase string `yaml:"phrase" json:"phrase"`
}

// ReasonsFor renders the canonical reasons for a mismatch set on the named
// type, in mismatch order.
func ReasonsFor(typeName string, mismatches []Mismatch) []Reason {
	if len(mismatches) == 0 {
		return nil
	}
	reasons := make([]Reason, 0, len(mismatches))
	for _, m := range mismatches {
		reasons = append(reasons, reasonFor(typeName, m))
	}
	return reasons
}

// reasonFor renders the canonical reason for a mismatch on the named type.
func reasonFor(typeName string, m Mismatch) Reason {
	return Reason{
		Code: fmt.Sprintf("%s:%s:%s", typeName, typeName, m.Property),
		Phrase: fmt.Sprintf("The property %s should be \"%s\", but was \"%s\".",
			m.Property, formatValue(m.Expected), formatValue(m.Actual)),
	}
}

// formatValue renders a property value for human-readable output. Nil prints
// empty, enums print their symbolic name.
func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}
