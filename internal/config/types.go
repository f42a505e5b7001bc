package config

import (
	"gopkg.in/yaml.v3"
)

// Config represents a full conform desired-state document.
type Config struct {
	Version     string  `yaml:"version" validate:"required,semver"`
	Name        string  `yaml:"name" validate:"required,min=1,max=100"`
	Description string  `yaml:"description,omitempty"`
	Resources   []Entry `yaml:"resources" validate:"required,min=1,dive"`
}

// Entry declares one resource instance: its registered type, the desired
// property values, and the per-instance reconciliation switches.
type Entry struct {
	ID   string `yaml:"id" validate:"required,resource_id"`
	Type string `yaml:"type" validate:"required"`

	// Exclude removes fields from enforcement regardless of declared role.
	Exclude []string `yaml:"exclude,omitempty"`

	// ZeroEnumAsUnset enables the zero-sentinel-as-unset shim for value-typed
	// enumeration fields of this resource.
	ZeroEnumAsUnset bool `yaml:"zero_enum_as_unset,omitempty"`

	// Properties holds the raw desired values. They are decoded late, onto
	// the concrete resource struct the registry builds for Type.
	Properties yaml.Node `yaml:"properties"`
}

// DecodeProperties unmarshals the entry's raw properties onto target, which
// is expected to be a pointer to the concrete resource struct.
func (e *Entry) DecodeProperties(target any) error {
	if e.Properties.IsZero() {
		return nil
	}
	return e.Properties.Decode(target)
}
