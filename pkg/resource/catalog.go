package resource

import "fmt"

// Message catalog keys for the built-in failure strings.
const (
	MsgGetCurrentStateNotImplemented = "GetCurrentStateNotImplemented"
	MsgModifyNotImplemented          = "ModifyNotImplemented"
)

// Catalog resolves message templates by key. The template text is opaque to
// the core; a host may install a localized catalog on a resource's Base.
type Catalog interface {
	Lookup(key string) string
}

// MapCatalog is a Catalog backed by a plain map.
type MapCatalog map[string]string

// Lookup returns the template for key, or the empty string when missing.
func (c MapCatalog) Lookup(key string) string {
	return c[key]
}

// defaultCatalog holds the built-in English templates. Each template receives
// the method name as its single argument.
var defaultCatalog = MapCatalog{
	MsgGetCurrentStateNotImplemented: "the method %s() should be provided by the resource implementing the probe contract",
	MsgModifyNotImplemented:          "the method %s() should be provided by the resource implementing the mutation contract",
}

// lookupMessage resolves key against cat, falling back to the built-in
// catalog, and formats the template with the method name.
func lookupMessage(cat Catalog, key, method string) string {
	template := ""
	if cat != nil {
		template = cat.Lookup(key)
	}
	if template == "" {
		template = defaultCatalog.Lookup(key)
	}
	if template == "" {
		return fmt.Sprintf("method %s is not implemented", method)
	}
	return fmt.Sprintf(template, method)
}
