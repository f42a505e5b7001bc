package resource

// Role describes how the reconciler treats a declared field.
type Role int

const (
	// RoleKey marks an identity field. Key fields are always enforced unless
	// explicitly excluded, and are always echoed in Get's snapshot.
	RoleKey Role = iota
	// RoleMandatory marks a field that must converge to its desired value.
	RoleMandatory
	// RoleOptional marks a field enforced only when the caller set a value.
	RoleOptional
	// RoleReadOnly marks a field that is never compared or enforced; it is
	// populated on the snapshot returned by Get when the probe reports it.
	RoleReadOnly
)

// String returns the tag spelling of the role.
func (r Role) String() string {
	switch r {
	case RoleKey:
		return "key"
	case RoleMandatory:
		return "mandatory"
	case RoleOptional:
		return "optional"
	case RoleReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// Kind is the declared type class of a field, used to pick the comparison
// strategy.
type Kind int

const (
	// KindPrimitive covers numeric and boolean fields.
	KindPrimitive Kind = iota
	// KindString covers string-kinded fields.
	KindString
	// KindEnum covers named integer types with a symbolic String form.
	KindEnum
)

// FieldDescriptor is an immutable snapshot of one declared configurable field
// at classification time.
type FieldDescriptor struct {
	Name  string
	Role  Role
	Kind  Kind
	Value any
	// ZeroEnum reports that a value-typed enum field currently holds the
	// type's zero member, the conventional "unset" sentinel.
	ZeroEnum bool
}
