// Package resource implements a generic declarative-state reconciliation
// core. A concrete resource declares its configurable fields with role tags,
// embeds Base, and provides a probe (GetCurrentState) and a mutator (Modify);
// the Reconciler computes the minimal set of drifted fields and drives the
// Get, Test and Set lifecycles over them.
package resource

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	conformerrors "github.com/conformkit/conform/pkg/errors"
)

// baseProvider is satisfied by every type embedding Base.
type baseProvider interface {
	base() *Base
}

// Reconciler binds the reconciliation state machine to one resource
// instance. It is not safe for concurrent use; callers serialize access per
// instance. Each lifecycle call invokes the probe exactly once and the
// mutator at most once.
type Reconciler struct {
	res    Resource
	schema *structSchema
	cfg    *Base
	log    zerolog.Logger
}

// Option customises a Reconciler.
type Option func(*Reconciler)

// WithLogger installs a logger for debug tracing. The default discards
// everything.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.log = log
	}
}

// New classifies res and returns a Reconciler bound to it. The resource must
// be a pointer to a struct embedding Base; anything else is a programming
// error in the caller's type.
func New(res Resource, opts ...Option) (*Reconciler, error) {
	schema, err := schemaFor(res)
	if err != nil {
		return nil, err
	}

	provider, ok := res.(baseProvider)
	if !ok {
		return nil, fmt.Errorf("resource %s must embed resource.Base", schema.name)
	}

	r := &Reconciler{
		res:    res,
		schema: schema,
		cfg:    provider.base(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// TypeName returns the name of the concrete resource type.
func (r *Reconciler) TypeName() string {
	return r.schema.name
}

// enforceable reports whether the engine compares and potentially mutates
// the field: key, mandatory or optional role, minus explicit exclusions.
func (r *Reconciler) enforceable(f fieldInfo) bool {
	if f.Role == RoleReadOnly {
		return false
	}
	return !r.cfg.IsExcluded(f.Name)
}

// Desired computes the desired-state map: every enforceable field whose
// current value is set. Nil pointers are unset; a value-typed enum at its
// zero member is unset when the resource opted into ZeroEnumAsUnset; an
// empty Ensure never expresses an opinion.
func (r *Reconciler) Desired() DesiredState {
	instance := reflect.ValueOf(r.res).Elem()
	desired := make(DesiredState)

	for _, f := range r.schema.fields {
		if !r.enforceable(f) {
			continue
		}
		value := f.value(instance)
		if value == nil {
			continue
		}
		if f.Kind == KindEnum && r.cfg.ZeroEnumAsUnset && f.zeroEnum(instance) {
			continue
		}
		if ensure, ok := value.(Ensure); ok && ensure == "" {
			continue
		}
		desired[f.Name] = value
	}

	return desired
}

// keyProperties collects the identity field values. Excluded keys are still
// identity, so they participate in the probe call.
func (r *Reconciler) keyProperties() map[string]any {
	instance := reflect.ValueOf(r.res).Elem()
	keys := make(map[string]any)
	for _, f := range r.schema.fields {
		if f.Role != RoleKey {
			continue
		}
		if value := f.value(instance); value != nil {
			keys[f.Name] = value
		}
	}
	return keys
}

// observation is the outcome of one reconcile pass: desired and actual state
// plus the mismatches between them. Every lifecycle operation derives its
// answer from a single observation, so the probe runs exactly once per call.
type observation struct {
	desired    DesiredState
	actual     ActualState
	mismatches []Mismatch
	presence   Ensure
}

func (r *Reconciler) reconcile(ctx context.Context) (*observation, error) {
	desired := r.Desired()

	if asserter, ok := r.res.(Asserter); ok {
		if err := asserter.AssertProperties(desired); err != nil {
			return nil, err
		}
	}
	if normalizer, ok := r.res.(Normalizer); ok {
		normalizer.NormalizeProperties(desired)
	}

	actual, err := r.res.GetCurrentState(ctx, r.keyProperties())
	if err != nil {
		return nil, err
	}

	obs := &observation{desired: desired, actual: actual}
	instance := reflect.ValueOf(r.res).Elem()

	ensureField, hasEnsure := r.schema.ensureField()
	if hasEnsure {
		obs.presence = r.resolvePresence(actual, ensureField)
	}

	for _, f := range r.schema.fields {
		if !r.enforceable(f) {
			continue
		}
		if hasEnsure && f.Name == ensureField.Name {
			continue // compared against resolved presence below
		}
		want, ok := desired[f.Name]
		if !ok {
			continue
		}
		got := actual[f.Name]
		if got == nil && f.Role == RoleKey {
			// Comparison sees the same identity echo Get's snapshot carries.
			got = f.value(instance)
		}
		if !equalValues(want, got, f.Kind) {
			obs.mismatches = append(obs.mismatches, Mismatch{Property: f.Name, Expected: want, Actual: got})
		}
	}

	if hasEnsure {
		if want, ok := desired[ensureField.Name]; ok {
			wanted := coerceEnsure(want)
			if wanted == "" {
				return nil, conformerrors.NewValidationError(
					ensureField.Name,
					fmt.Sprintf("unrecognized presence value %q, want %q or %q", formatValue(want), EnsurePresent, EnsureAbsent),
					nil,
				)
			}
			if wanted != obs.presence {
				obs.mismatches = append(obs.mismatches, Mismatch{
					Property: ensureField.Name,
					Expected: wanted,
					Actual:   obs.presence,
				})
			}
		}
	}

	r.log.Debug().
		Str("resource", r.schema.name).
		Int("desired", len(desired)).
		Int("actual", len(actual)).
		Int("mismatches", len(obs.mismatches)).
		Msg("reconcile pass complete")

	return obs, nil
}

// resolvePresence determines the actual Ensure value: an explicit value from
// the probe wins; otherwise presence is inferred from whether the probe
// returned any non-identity enforceable field value.
func (r *Reconciler) resolvePresence(actual ActualState, ensureField fieldInfo) Ensure {
	if value, ok := actual[ensureField.Name]; ok && value != nil {
		if explicit := coerceEnsure(value); explicit != "" {
			return explicit
		}
	}

	for _, f := range r.schema.fields {
		if f.Role == RoleKey || !r.enforceable(f) || f.Name == ensureField.Name {
			continue
		}
		if value, ok := actual[f.Name]; ok && value != nil {
			return EnsurePresent
		}
	}
	return EnsureAbsent
}

// Compare runs one reconcile pass and returns the drifted fields. An empty
// result means the resource is fully compliant.
func (r *Reconciler) Compare(ctx context.Context) ([]Mismatch, error) {
	obs, err := r.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return obs.mismatches, nil
}

// Test reports whether the resource is compliant. No side effects.
func (r *Reconciler) Test(ctx context.Context) (bool, error) {
	obs, err := r.reconcile(ctx)
	if err != nil {
		return false, err
	}
	return len(obs.mismatches) == 0, nil
}

// Set pushes exactly the drifted fields to the resource's mutator. When the
// resource is already compliant, Modify is never invoked.
func (r *Reconciler) Set(ctx context.Context) error {
	obs, err := r.reconcile(ctx)
	if err != nil {
		return err
	}
	if len(obs.mismatches) == 0 {
		r.log.Debug().Str("resource", r.schema.name).Msg("already compliant, skipping modify")
		return nil
	}

	changes := make(map[string]any, len(obs.mismatches))
	for _, m := range obs.mismatches {
		changes[m.Property] = m.Expected
	}

	r.log.Debug().Str("resource", r.schema.name).Int("changes", len(changes)).Msg("invoking modify")
	return r.res.Modify(ctx, changes)
}

// Get returns a new instance of the concrete resource type representing the
// actual state: probed values for enforceable and read-only fields, identity
// echoed from the live instance when the probe omits it, resolved presence,
// and Reasons derived from the mismatches. The live instance is never
// mutated.
func (r *Reconciler) Get(ctx context.Context) (Resource, error) {
	obs, err := r.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return r.snapshot(obs)
}

func (r *Reconciler) snapshot(obs *observation) (Resource, error) {
	snapPtr := reflect.New(r.schema.typ)
	snap, ok := snapPtr.Interface().(Resource)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement Resource through a pointer receiver", r.schema.name)
	}
	*snap.(baseProvider).base() = *r.cfg

	instance := snapPtr.Elem()
	live := reflect.ValueOf(r.res).Elem()

	ensureField, hasEnsure := r.schema.ensureField()
	reasonsField, hasReasons := r.schema.reasonsField()

	for _, f := range r.schema.fields {
		switch {
		case hasReasons && f.Name == reasonsField.Name:
			if len(obs.mismatches) == 0 {
				continue
			}
			reasons := make([]Reason, 0, len(obs.mismatches))
			for _, m := range obs.mismatches {
				reasons = append(reasons, reasonFor(r.schema.name, m))
			}
			if err := f.set(instance, reasons); err != nil {
				return nil, err
			}

		case hasEnsure && f.Name == ensureField.Name:
			if err := f.set(instance, obs.presence); err != nil {
				return nil, err
			}

		case f.Role == RoleKey:
			// Identity is never "not in desired state": fall back to the live
			// value when the probe omits the key, even for excluded keys.
			value := obs.actual[f.Name]
			if value == nil {
				value = f.value(live)
			}
			if value == nil {
				continue
			}
			if err := f.set(instance, value); err != nil {
				return nil, err
			}

		default:
			value, ok := obs.actual[f.Name]
			if !ok || value == nil {
				continue // omitted fields keep their natural default
			}
			if err := f.set(instance, value); err != nil {
				return nil, err
			}
		}
	}

	return snap, nil
}

// equalValues compares a desired value against a probed value using equality
// appropriate to the declared kind. A nil probe value never equals a set
// desired value.
func equalValues(want, got any, kind Kind) bool {
	if got == nil {
		return false
	}
	switch kind {
	case KindEnum:
		// Enumerations compare by symbolic value so the probe may report
		// either the typed member or its name.
		return symbolOf(want) == symbolOf(got)
	case KindString:
		return symbolOf(want) == symbolOf(got)
	default:
		return primitiveEqual(want, got)
	}
}

func symbolOf(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v)
}

func primitiveEqual(want, got any) bool {
	wv := reflect.ValueOf(want)
	gv := reflect.ValueOf(got)
	if wf, ok := asFloat(wv); ok {
		if gf, ok := asFloat(gv); ok {
			return wf == gf
		}
		return false
	}
	if wv.Kind() == reflect.Bool && gv.Kind() == reflect.Bool {
		return wv.Bool() == gv.Bool()
	}
	return reflect.DeepEqual(want, got)
}

func asFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

// coerceEnsure interprets a desired or probed presence value. Unrecognised
// values coerce to the empty Ensure.
func coerceEnsure(v any) Ensure {
	switch value := v.(type) {
	case Ensure:
		return value
	case string:
		switch strings.ToLower(value) {
		case string(EnsurePresent):
			return EnsurePresent
		case string(EnsureAbsent):
			return EnsureAbsent
		}
	}
	return ""
}
