package resource

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	conformerrors "github.com/conformkit/conform/pkg/errors"
)

// testEndpoint is the reconciler fixture: a controllable probe and mutator
// around a realistic field set.
type testEndpoint struct {
	Base

	Name     string   `prop:"key"`
	Address  *string  `prop:"mandatory"`
	Port     *int     `prop:"optional"`
	Protocol Protocol `prop:"optional"`
	Ensure   Ensure   `prop:"optional"`
	Version  string   `prop:"readonly"`
	Reasons  []Reason `prop:"readonly"`

	probeFn    func(keys map[string]any) (ActualState, error)
	probeCalls int
	lastKeys   map[string]any
	modified   []map[string]any
}

func (e *testEndpoint) GetCurrentState(ctx context.Context, keys map[string]any) (ActualState, error) {
	e.probeCalls++
	e.lastKeys = keys
	if e.probeFn == nil {
		return ActualState{}, nil
	}
	return e.probeFn(keys)
}

func (e *testEndpoint) Modify(ctx context.Context, changes map[string]any) error {
	e.modified = append(e.modified, changes)
	return nil
}

func intPtr(i int) *int { return &i }

func newTestReconciler(t *testing.T, e *testEndpoint) *Reconciler {
	t.Helper()
	r, err := New(e)
	require.NoError(t, err)
	return r
}

func TestDesiredStateSkipsUnsetAndExcluded(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("10.0.0.1")}
	e.ExcludedProperties = []string{"Port"}
	e.Port = intPtr(8080)

	r := newTestReconciler(t, e)
	desired := r.Desired()

	require.Equal(t, "api", desired["Name"])
	require.Equal(t, "10.0.0.1", desired["Address"])
	require.NotContains(t, desired, "Port", "excluded fields never enter desired state")
	require.NotContains(t, desired, "Comment")
	require.NotContains(t, desired, "Version", "read-only fields are not enforceable")
	require.NotContains(t, desired, "Ensure", "an empty Ensure expresses no opinion")
}

func TestDesiredStateEnumZeroSentinel(t *testing.T) {
	t.Parallel()

	t.Run("toggle on treats zero member as unset", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api"}
		e.ZeroEnumAsUnset = true
		r := newTestReconciler(t, e)
		require.NotContains(t, r.Desired(), "Protocol")
	})

	t.Run("toggle off keeps zero member as a normal value", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api"}
		r := newTestReconciler(t, e)
		require.Equal(t, ProtocolUnspecified, r.Desired()["Protocol"])
	})

	t.Run("non-zero member is always an explicit choice", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api", Protocol: ProtocolHTTPS}
		e.ZeroEnumAsUnset = true
		r := newTestReconciler(t, e)
		require.Equal(t, ProtocolHTTPS, r.Desired()["Protocol"])
	})
}

func TestCompareCompliantResource(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("10.0.0.1")}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Name": "api", "Address": "10.0.0.1"}, nil
	}

	r := newTestReconciler(t, e)

	mismatches, err := r.Compare(context.Background())
	require.NoError(t, err)
	require.Empty(t, mismatches)

	ok, err := r.Test(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompareSingleDriftedField(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("new")}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "old"}, nil
	}

	r := newTestReconciler(t, e)

	mismatches, err := r.Compare(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	require.Equal(t, "Address", mismatches[0].Property)
	require.Equal(t, "new", mismatches[0].Expected)
	require.Equal(t, "old", mismatches[0].Actual)

	ok, err := r.Test(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Set(context.Background()))
	require.Len(t, e.modified, 1)
	require.Equal(t, map[string]any{"Address": "new"}, e.modified[0])
}

func TestCompareMultipleDriftedFields(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{
		Name:     "api",
		Address:  strPtr("10.0.0.2"),
		Port:     intPtr(9090),
		Protocol: ProtocolHTTPS,
	}
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{
			"Address":  "10.0.0.1",
			"Port":     8080,
			"Protocol": "http",
		}, nil
	}

	r := newTestReconciler(t, e)

	mismatches, err := r.Compare(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 3)

	seen := make(map[string]Mismatch)
	for _, m := range mismatches {
		seen[m.Property] = m
	}
	require.Contains(t, seen, "Address")
	require.Contains(t, seen, "Port")
	require.Contains(t, seen, "Protocol")

	require.NoError(t, r.Set(context.Background()))
	require.Len(t, e.modified, 1)
	require.Len(t, e.modified[0], 3)
	require.Equal(t, "10.0.0.2", e.modified[0]["Address"])
	require.Equal(t, 9090, e.modified[0]["Port"])
	require.Equal(t, ProtocolHTTPS, e.modified[0]["Protocol"])
}

func TestSetSkipsModifyWhenCompliant(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("10.0.0.1")}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "10.0.0.1"}, nil
	}

	r := newTestReconciler(t, e)
	require.NoError(t, r.Set(context.Background()))
	require.Empty(t, e.modified, "Set must never call Modify on a compliant resource")
}

func TestProbeReceivesOnlyKeyProperties(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("10.0.0.1"), Port: intPtr(8080)}
	r := newTestReconciler(t, e)

	_, err := r.Compare(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Name": "api"}, e.lastKeys)
}

func TestProbeCalledExactlyOncePerLifecycleCall(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("10.0.0.1")}
	r := newTestReconciler(t, e)

	_, err := r.Compare(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, e.probeCalls)

	_, err = r.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, e.probeCalls)

	require.NoError(t, r.Set(context.Background()))
	require.Equal(t, 3, e.probeCalls)
}

func TestEnumComparedBySymbolicValue(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("a"), Protocol: ProtocolHTTPS}
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "a", "Protocol": "https"}, nil
	}

	r := newTestReconciler(t, e)
	ok, err := r.Test(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "probe may report an enum by its symbolic name")
}

func TestGetEchoesExcludedKeyOmittedByProbe(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("10.0.0.1")}
	e.ExcludedProperties = []string{"Name"}
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "10.0.0.1"}, nil
	}

	r := newTestReconciler(t, e)
	snap, err := r.Get(context.Background())
	require.NoError(t, err)

	got := snap.(*testEndpoint)
	require.Equal(t, "api", got.Name, "identity must never fall back to a zero value")
}

func TestGetCopiesActualAndReadOnlyValues(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("new")}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "old", "Port": 8080, "Version": "2.4.1"}, nil
	}

	r := newTestReconciler(t, e)
	snap, err := r.Get(context.Background())
	require.NoError(t, err)

	got := snap.(*testEndpoint)
	require.Equal(t, "api", got.Name)
	require.NotNil(t, got.Address)
	require.Equal(t, "old", *got.Address)
	require.NotNil(t, got.Port)
	require.Equal(t, 8080, *got.Port)
	require.Equal(t, "2.4.1", got.Version)

	require.Equal(t, "new", *e.Address, "the live instance is never mutated")
}

func TestPresenceInference(t *testing.T) {
	t.Parallel()

	t.Run("absent when the probe returns nothing beyond identity", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api"}
		e.probeFn = func(map[string]any) (ActualState, error) {
			return ActualState{"Name": "api"}, nil
		}
		r := newTestReconciler(t, e)
		snap, err := r.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, EnsureAbsent, snap.(*testEndpoint).Ensure)
	})

	t.Run("present when any non-identity field is observed", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api"}
		e.probeFn = func(map[string]any) (ActualState, error) {
			return ActualState{"Port": 8080}, nil
		}
		r := newTestReconciler(t, e)
		snap, err := r.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, EnsurePresent, snap.(*testEndpoint).Ensure)
	})

	t.Run("excluded fields never count toward presence", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api"}
		e.ExcludedProperties = []string{"Address"}
		e.probeFn = func(map[string]any) (ActualState, error) {
			return ActualState{"Address": "10.0.0.1"}, nil
		}
		r := newTestReconciler(t, e)
		snap, err := r.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, EnsureAbsent, snap.(*testEndpoint).Ensure)
	})

	t.Run("explicit probe value wins over inference", func(t *testing.T) {
		t.Parallel()
		e := &testEndpoint{Name: "api"}
		e.probeFn = func(map[string]any) (ActualState, error) {
			return ActualState{"Ensure": "absent", "Port": 8080}, nil
		}
		r := newTestReconciler(t, e)
		snap, err := r.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, EnsureAbsent, snap.(*testEndpoint).Ensure)
	})
}

func TestPresenceMismatchIsSingleExtraEntry(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Ensure: EnsurePresent}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{}, nil
	}

	r := newTestReconciler(t, e)
	mismatches, err := r.Compare(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	require.Equal(t, "Ensure", mismatches[0].Property)
	require.Equal(t, EnsurePresent, mismatches[0].Expected)
	require.Equal(t, EnsureAbsent, mismatches[0].Actual)

	require.NoError(t, r.Set(context.Background()))
	require.Equal(t, map[string]any{"Ensure": EnsurePresent}, e.modified[0])
}

func TestReasonsCorrespondToMismatches(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("new")}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "old"}, nil
	}

	r := newTestReconciler(t, e)
	snap, err := r.Get(context.Background())
	require.NoError(t, err)

	reasons := snap.(*testEndpoint).Reasons
	require.Len(t, reasons, 1)
	require.Equal(t, "testEndpoint:testEndpoint:Address", reasons[0].Code)
	require.Equal(t, `The property Address should be "new", but was "old".`, reasons[0].Phrase)
}

func TestReasonsEmptyWhenCompliant(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Address: strPtr("same")}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "same"}, nil
	}

	r := newTestReconciler(t, e)
	snap, err := r.Get(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.(*testEndpoint).Reasons)
}

func TestKeyOnlyResourceWithEmptyProbe(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "A"}
	e.ZeroEnumAsUnset = true
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{}, nil
	}

	r := newTestReconciler(t, e)
	snap, err := r.Get(context.Background())
	require.NoError(t, err)

	got := snap.(*testEndpoint)
	require.Equal(t, "A", got.Name)
	require.Equal(t, EnsureAbsent, got.Ensure)
	require.Empty(t, got.Reasons, "nothing to enforce beyond identity")
}

// bareResource never overrides the probe or the mutator.
type bareResource struct {
	Base
	Name string `prop:"key"`
}

func TestUnimplementedProbeFailsGetAndTest(t *testing.T) {
	t.Parallel()

	r, err := New(&bareResource{Name: "x"})
	require.NoError(t, err)

	_, err = r.Get(context.Background())
	var notImpl *conformerrors.NotImplementedError
	require.ErrorAs(t, err, &notImpl)
	require.Equal(t, "GetCurrentState", notImpl.Method)
	require.Contains(t, err.Error(), "GetCurrentState")

	_, err = r.Test(context.Background())
	require.ErrorAs(t, err, &notImpl)
	require.Equal(t, "GetCurrentState", notImpl.Method)
}

// probeOnlyResource observes state but has no mutation strategy.
type probeOnlyResource struct {
	Base
	Name string  `prop:"key"`
	Mode *string `prop:"mandatory"`
}

func (p *probeOnlyResource) GetCurrentState(ctx context.Context, keys map[string]any) (ActualState, error) {
	return ActualState{"Mode": "enforcing"}, nil
}

func TestUnimplementedModifyFailsSet(t *testing.T) {
	t.Parallel()

	r, err := New(&probeOnlyResource{Name: "x", Mode: strPtr("permissive")})
	require.NoError(t, err)

	err = r.Set(context.Background())
	var notImpl *conformerrors.NotImplementedError
	require.ErrorAs(t, err, &notImpl)
	require.Equal(t, "Modify", notImpl.Method)
}

// guardedRange validates cross-field constraints before any probing.
type guardedRange struct {
	Base
	Name string `prop:"key"`
	Min  *int   `prop:"optional"`
	Max  *int   `prop:"optional"`

	probeCalls int
}

func (g *guardedRange) GetCurrentState(ctx context.Context, keys map[string]any) (ActualState, error) {
	g.probeCalls++
	return ActualState{}, nil
}

func (g *guardedRange) Modify(ctx context.Context, changes map[string]any) error {
	return nil
}

func (g *guardedRange) AssertProperties(desired DesiredState) error {
	min, hasMin := desired["Min"].(int)
	max, hasMax := desired["Max"].(int)
	if hasMin && hasMax && min > max {
		return conformerrors.NewValidationError("Min", "must not exceed Max", nil)
	}
	return nil
}

func TestAssertPropertiesAbortsBeforeProbing(t *testing.T) {
	t.Parallel()

	g := &guardedRange{Name: "range", Min: intPtr(10), Max: intPtr(5)}
	r, err := New(g)
	require.NoError(t, err)

	_, err = r.Compare(context.Background())
	var validationErr *conformerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Zero(t, g.probeCalls, "a failed assertion aborts the lifecycle before the probe runs")

	err = r.Set(context.Background())
	require.ErrorAs(t, err, &validationErr)
	require.Zero(t, g.probeCalls)
}

func TestUnrecognizedPresenceValueRejected(t *testing.T) {
	t.Parallel()

	e := &testEndpoint{Name: "api", Ensure: Ensure("gone")}
	e.probeFn = func(map[string]any) (ActualState, error) {
		return ActualState{"Address": "10.0.0.1"}, nil
	}
	r := newTestReconciler(t, e)

	_, err := r.Compare(context.Background())
	var validationErr *conformerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, err.Error(), `"gone"`)

	err = r.Set(context.Background())
	require.ErrorAs(t, err, &validationErr)
	require.Empty(t, e.modified, "an unrecognized presence value must never reach Modify")
}

// canonicalHost lowercases its address before comparison.
type canonicalHost struct {
	Base
	Name    string  `prop:"key"`
	Address *string `prop:"mandatory"`
}

func (c *canonicalHost) GetCurrentState(ctx context.Context, keys map[string]any) (ActualState, error) {
	return ActualState{"Address": "node-1.example.com"}, nil
}

func (c *canonicalHost) Modify(ctx context.Context, changes map[string]any) error {
	return nil
}

func (c *canonicalHost) NormalizeProperties(desired DesiredState) {
	if addr, ok := desired["Address"].(string); ok {
		desired["Address"] = strings.ToLower(addr)
	}
}

func TestNormalizePropertiesCanonicalizesDesiredState(t *testing.T) {
	t.Parallel()

	c := &canonicalHost{Name: "node", Address: strPtr("NODE-1.Example.COM")}
	r, err := New(c)
	require.NoError(t, err)

	ok, err := r.Test(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "normalized desired state must match the canonical actual value")
}

func TestNewRequiresEmbeddedBase(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}
