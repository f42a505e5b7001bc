package resource

import (
	"fmt"
	"reflect"
)

// tagName is the struct tag carrying a field's declared role.
const tagName = "prop"

var (
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	ensureType   = reflect.TypeOf(Ensure(""))
	reasonsType  = reflect.TypeOf([]Reason(nil))
)

// fieldInfo is the static part of a field descriptor plus the reflect index
// path needed to read and write the field on an instance.
type fieldInfo struct {
	Name  string
	Role  Role
	Kind  Kind
	index []int
	typ   reflect.Type
}

func (f fieldInfo) pointer() bool {
	return f.typ.Kind() == reflect.Pointer
}

func (f fieldInfo) elemType() reflect.Type {
	if f.pointer() {
		return f.typ.Elem()
	}
	return f.typ
}

// structSchema is the classified shape of one concrete resource type. It is
// computed once per reconciler and never mutated.
type structSchema struct {
	typ     reflect.Type
	name    string
	fields  []fieldInfo
	ensure  int // index into fields, -1 when absent
	reasons int // index into fields, -1 when absent
	byName  map[string]int
}

func (s *structSchema) ensureField() (fieldInfo, bool) {
	if s.ensure < 0 {
		return fieldInfo{}, false
	}
	return s.fields[s.ensure], true
}

func (s *structSchema) reasonsField() (fieldInfo, bool) {
	if s.reasons < 0 {
		return fieldInfo{}, false
	}
	return s.fields[s.reasons], true
}

// schemaFor classifies the concrete type behind res. It walks the full
// embedding chain so fields declared on embedded structs (the base-class
// chain) are classified alongside the type's own fields.
func schemaFor(res Resource) (*structSchema, error) {
	rv := reflect.ValueOf(res)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("resource must be a non-nil pointer to a struct, got %T", res)
	}
	rt := rv.Elem().Type()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("resource must point to a struct, got %T", res)
	}

	s := &structSchema{
		typ:     rt,
		name:    rt.Name(),
		ensure:  -1,
		reasons: -1,
		byName:  make(map[string]int),
	}
	if err := s.collect(rt, nil); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *structSchema) collect(rt reflect.Type, prefix []int) error {
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous {
			// Fields promoted through an unexported embedded type are
			// read-only to reflection, so only exported embeds participate.
			if sf.PkgPath == "" && sf.Type.Kind() == reflect.Struct {
				if err := s.collect(sf.Type, index); err != nil {
					return err
				}
			}
			continue
		}
		if sf.PkgPath != "" {
			continue // unexported, runtime-internal
		}

		tag := sf.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		role, err := parseRole(tag)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", s.name, sf.Name, err)
		}

		if _, dup := s.byName[sf.Name]; dup {
			return fmt.Errorf("field %s.%s: declared twice in the embedding chain", s.name, sf.Name)
		}

		info := fieldInfo{
			Name:  sf.Name,
			Role:  role,
			Kind:  kindOf(sf.Type),
			index: index,
			typ:   sf.Type,
		}
		s.byName[sf.Name] = len(s.fields)
		s.fields = append(s.fields, info)

		switch {
		case derefType(sf.Type) == ensureType:
			if s.ensure >= 0 {
				return fmt.Errorf("field %s.%s: second presence field, only one Ensure field may be declared", s.name, sf.Name)
			}
			s.ensure = len(s.fields) - 1
		case sf.Type == reasonsType:
			s.reasons = len(s.fields) - 1
		}
	}
	return nil
}

func parseRole(tag string) (Role, error) {
	switch tag {
	case "key":
		return RoleKey, nil
	case "mandatory":
		return RoleMandatory, nil
	case "optional":
		return RoleOptional, nil
	case "readonly":
		return RoleReadOnly, nil
	default:
		return 0, fmt.Errorf("unknown role %q in %s tag", tag, tagName)
	}
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// kindOf resolves the declared type class of a field. Named integer types
// with a symbolic String form are enumerations; everything string-kinded is a
// string; the rest are primitives.
func kindOf(t reflect.Type) Kind {
	t = derefType(t)
	switch {
	case isEnumType(t):
		return KindEnum
	case t.Kind() == reflect.String:
		return KindString
	default:
		return KindPrimitive
	}
}

func isEnumType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return false
	}
	return t.Implements(stringerType) || reflect.PointerTo(t).Implements(stringerType)
}

// value reads the current value of the field on instance. Nil pointers
// resolve to nil, meaning "unset".
func (f fieldInfo) value(instance reflect.Value) any {
	fv := instance.FieldByIndex(f.index)
	if f.pointer() {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return fv.Interface()
}

// zeroEnum reports whether a value-typed enum field holds the zero sentinel.
func (f fieldInfo) zeroEnum(instance reflect.Value) bool {
	if f.Kind != KindEnum || f.pointer() {
		return false
	}
	fv := instance.FieldByIndex(f.index)
	return fv.IsZero()
}

// set writes value onto the field, allocating through pointers and converting
// between compatible kinds. Cross-kind conversions (string to number and the
// reverse) are rejected rather than guessed.
func (f fieldInfo) set(instance reflect.Value, value any) error {
	fv := instance.FieldByIndex(f.index)
	if f.pointer() {
		if value == nil {
			fv.Set(reflect.Zero(f.typ))
			return nil
		}
		ptr := reflect.New(f.typ.Elem())
		if err := assign(ptr.Elem(), value); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		fv.Set(ptr)
		return nil
	}
	if value == nil {
		return nil // leave the natural default
	}
	if err := assign(fv, value); err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	return nil
}

func assign(dst reflect.Value, value any) error {
	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(dst.Type()) {
		dst.Set(vv)
		return nil
	}
	if vv.Type().ConvertibleTo(dst.Type()) && sameKindClass(vv.Kind(), dst.Kind()) {
		dst.Set(vv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, dst.Type())
}

func sameKindClass(a, b reflect.Kind) bool {
	return kindClass(a) != 0 && kindClass(a) == kindClass(b)
}

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	default:
		return 0
	}
}

// Classify returns one descriptor per declared configurable field of res,
// walking the full embedding chain. Untagged and unexported fields are
// skipped. The returned slice is a point-in-time snapshot of the instance.
func Classify(res Resource) ([]FieldDescriptor, error) {
	s, err := schemaFor(res)
	if err != nil {
		return nil, err
	}
	instance := reflect.ValueOf(res).Elem()

	descriptors := make([]FieldDescriptor, 0, len(s.fields))
	for _, f := range s.fields {
		descriptors = append(descriptors, FieldDescriptor{
			Name:     f.Name,
			Role:     f.Role,
			Kind:     f.Kind,
			Value:    f.value(instance),
			ZeroEnum: f.zeroEnum(instance),
		})
	}
	return descriptors, nil
}

// FieldValue reads the named declared field from res. The second return
// reports whether the field is declared.
func FieldValue(res Resource, name string) (any, bool) {
	s, err := schemaFor(res)
	if err != nil {
		return nil, false
	}
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].value(reflect.ValueOf(res).Elem()), true
}

// SetFieldValue writes the named declared field on res.
func SetFieldValue(res Resource, name string, value any) error {
	s, err := schemaFor(res)
	if err != nil {
		return err
	}
	i, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("field %s is not declared on %s", name, s.name)
	}
	return s.fields[i].set(reflect.ValueOf(res).Elem(), value)
}
