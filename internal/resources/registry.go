// Package resources maintains the registry of concrete resource types the
// host engine can instantiate from a desired-state document.
package resources

import (
	"fmt"
	"sort"
	"sync"

	conformerrors "github.com/conformkit/conform/pkg/errors"
	"github.com/conformkit/conform/pkg/resource"
)

// Factory builds a fresh instance of a concrete resource type.
type Factory func() resource.Resource

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a factory for the provided type name. Each resource package
// calls this from init.
func Register(typeName string, factory Factory) error {
	if factory == nil {
		return conformerrors.NewResourceError(typeName, fmt.Errorf("factory is nil"))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[typeName]; exists {
		return conformerrors.NewResourceError(typeName, fmt.Errorf("resource type already registered"))
	}

	registry[typeName] = factory
	return nil
}

// New instantiates a registered resource type.
func New(typeName string) (resource.Resource, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[typeName]
	if !ok {
		return nil, conformerrors.NewResourceError(typeName, fmt.Errorf("no resource type registered"))
	}

	return factory(), nil
}

// Types returns the registered type names in sorted order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetRegistry clears registrations (for tests).
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Factory)
}
