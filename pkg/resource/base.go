package resource

import (
	"context"

	conformerrors "github.com/conformkit/conform/pkg/errors"
)

// Resource is the contract every reconcilable type satisfies. Concrete types
// embed Base, which supplies failing defaults for both methods, and override
// the ones they support.
//
// GetCurrentState receives only the identity field values, never desired
// values, and returns every observable enforceable field. Omitting a field
// (or returning nil for it) means "not set / use default".
//
// Modify receives exactly the fields that drifted, mapped to their desired
// values, and pushes them to the system being described. The engine never
// calls Modify with fields that are already compliant.
type Resource interface {
	GetCurrentState(ctx context.Context, keys map[string]any) (ActualState, error)
	Modify(ctx context.Context, changes map[string]any) error
}

// Asserter is optionally implemented by resources that validate cross-field
// constraints before any probing or mutation. A failed assertion aborts the
// whole lifecycle call.
type Asserter interface {
	AssertProperties(desired DesiredState) error
}

// Normalizer is optionally implemented by resources that canonicalize desired
// values in place before probing.
type Normalizer interface {
	NormalizeProperties(desired DesiredState)
}

// Base carries the per-instance reconciliation configuration and the failing
// defaults for the two mandatory overrides. Embed it in every concrete
// resource type.
type Base struct {
	// ExcludedProperties removes fields from enforcement regardless of their
	// declared role. Excluded key fields remain identity and are still echoed
	// by Get.
	ExcludedProperties []string `yaml:"-" json:"-"`

	// ZeroEnumAsUnset treats a value-typed enum field left at its zero member
	// as unset instead of as an explicit choice. Compatibility shim for
	// resource definitions that cannot use pointer enums.
	ZeroEnumAsUnset bool `yaml:"-" json:"-"`

	catalog Catalog
}

// SetMessageCatalog installs a message catalog for the built-in failure
// strings. Nil restores the built-in English templates.
func (b *Base) SetMessageCatalog(cat Catalog) {
	b.catalog = cat
}

// GetCurrentState is the failing default probe. A resource with no
// state-probing strategy cannot be reconciled.
func (b *Base) GetCurrentState(ctx context.Context, keys map[string]any) (ActualState, error) {
	return nil, conformerrors.NewNotImplementedError(
		"GetCurrentState",
		lookupMessage(b.catalog, MsgGetCurrentStateNotImplemented, "GetCurrentState"),
	)
}

// Modify is the failing default mutator.
func (b *Base) Modify(ctx context.Context, changes map[string]any) error {
	return conformerrors.NewNotImplementedError(
		"Modify",
		lookupMessage(b.catalog, MsgModifyNotImplemented, "Modify"),
	)
}

// base lets the reconciler reach the embedded configuration through the
// concrete type. Promotion makes every embedder satisfy baseProvider.
func (b *Base) base() *Base {
	return b
}

// BaseOf returns the embedded Base of a concrete resource, letting hosts set
// ExcludedProperties and the other per-instance knobs after decoding.
func BaseOf(res Resource) (*Base, bool) {
	provider, ok := res.(baseProvider)
	if !ok {
		return nil, false
	}
	return provider.base(), true
}

// IsExcluded reports whether the named field was removed from enforcement.
func (b *Base) IsExcluded(name string) bool {
	for _, excluded := range b.ExcludedProperties {
		if excluded == name {
			return true
		}
	}
	return false
}
