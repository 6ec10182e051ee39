package paraminject

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Thing struct {
	name string
}

type things struct {
	created int
}

func (t *things) TwoThings(thing *Thing) []*Thing {
	t.created++
	return []*Thing{thing, thing}
}

func (t *things) capabilities() Capabilities {
	return Capabilities{
		"two_things": Fn(t.TwoThings, "thing"),
	}
}

func TestShouldResolveFromMapSource(t *testing.T) {
	ctx := context.Background()
	thing := &Thing{name: "a"}
	injector, err := NewInjector(From(map[string]any{"a": thing}))
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func(a *Thing) *Thing { return a }, "a"), nil)
	assert.NoError(t, err)
	assert.Same(t, thing, res)
}

func TestShouldHonorNilAsResolvedValue(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector(From(map[string]any{"a": nil}))
	require.NoError(t, err)

	t.Run("with an interface parameter", func(t *testing.T) {
		res, err := injector.EagerDispatch(ctx, Fn(func(a any) any { return a }, "a"), nil)
		assert.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("with a pointer parameter", func(t *testing.T) {
		called := false
		_, err := injector.EagerDispatch(ctx, Fn(func(a *Thing) {
			called = true
			assert.Nil(t, a)
		}, "a"), nil)
		assert.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("with a Value parameter", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func(a Value) bool { return a.IsResolved() }, "a"), nil)
		assert.NoError(t, err)
		assert.Equal(t, true, res)
	})

	t.Run("but not into a non nillable parameter", func(t *testing.T) {
		_, err := injector.Dispatch(ctx, Fn(func(_ int) {
			assert.Fail(t, "should not be reached")
		}, "a"), nil)
		assert.ErrorContains(t, err, "cannot use nil as int")
	})
}

func TestFirstSourceShouldWin(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector(From(
		map[string]any{"x": "v1"},
		map[string]any{"x": "v2"},
	))
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func(x string) string { return x }, "x"), nil)
	assert.NoError(t, err)
	assert.Equal(t, "v1", res)
}

func TestOverridesShouldDominateSources(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector(From(map[string]any{"x": "v1"}))
	require.NoError(t, err)
	x := Fn(func(x string) string { return x }, "x")

	res, err := injector.Dispatch(ctx, x, Overrides{"x": "v2"})
	assert.NoError(t, err)
	assert.Equal(t, "v2", res)

	t.Run("And not persist across dispatches", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, x, nil)
		assert.NoError(t, err)
		assert.Equal(t, "v1", res)
	})

	t.Run("And allow nil", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func(x any) any { return x }, "x"), Overrides{"x": nil})
		assert.NoError(t, err)
		assert.Nil(t, res)
	})
}

func TestShouldProvideItself(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector()
	require.NoError(t, err)

	injector, err = NewInjector(From(map[string]any{"greeting": "hello"}))
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func(i *Injector) (any, error) {
		assert.Equal(t, injector.Sources(), i.Sources())
		return i.Dispatch(ctx, Fn(func(g string) string { return g }, "greeting"), nil)
	}, InjectorName), nil)
	assert.NoError(t, err)
	assert.Equal(t, "hello", res)

	injector, err = NewInjector()
	require.NoError(t, err)
	sources := injector.Sources()
	require.Len(t, sources, 1)
	assert.True(t, sources[0].Provides(InjectorName))
}

func TestInjectorNameCanBeShadowed(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector(From(map[string]any{InjectorName: "someone else"}))
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func(i any) any { return i }, InjectorName), nil)
	assert.NoError(t, err)
	assert.Equal(t, "someone else", res)
}

func TestShouldResolveRecursivelyFromObjectSources(t *testing.T) {
	ctx := context.Background()
	thing := &Thing{name: "T"}
	source := &things{}
	injector, err := NewInjector(From(map[string]any{"thing": thing}, source.capabilities()))
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func(two []*Thing) []*Thing { return two }, "two_things"), nil)
	assert.NoError(t, err)
	if diff := cmp.Diff([]*Thing{thing, thing}, res, cmp.AllowUnexported(Thing{})); diff != "" {
		t.Errorf("two_things mismatch (-want +got):\n%s", diff)
	}

	t.Run("And call the capability on each resolution", func(t *testing.T) {
		_, err := injector.Dispatch(ctx, Fn(func(_, _ []*Thing) {}, "two_things", "two_things"), nil)
		assert.NoError(t, err)
		assert.Equal(t, 3, source.created)
	})

	t.Run("And propagate overrides to nested resolutions", func(t *testing.T) {
		other := &Thing{name: "O"}
		res, err := injector.Dispatch(ctx, Fn(func(two []*Thing) []*Thing { return two }, "two_things"),
			Overrides{"thing": other})
		assert.NoError(t, err)
		assert.Equal(t, []*Thing{other, other}, res)
	})
}

func TestShouldDeferUnknownParameters(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector()
	require.NoError(t, err)

	t.Run("And succeed when the marker is not used", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func(_ any) int { return 42 }, "unknown"), nil)
		assert.NoError(t, err)
		assert.Equal(t, 42, res)
	})

	t.Run("And fail when a capability is called on the marker", func(t *testing.T) {
		called := false
		res, err := injector.Dispatch(ctx, Fn(func(unknown any) error {
			called = true
			_, err := Call(unknown, "Bogus")
			return err
		}, "unknown"), nil)
		assert.True(t, called)
		assert.Nil(t, res)
		assert.EqualError(t, err, "Tried to call capability on an uninjected parameter: unknown")

		var unknownErr *UnknownParameterError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "unknown", unknownErr.Name)
		assert.Equal(t, "Bogus", unknownErr.Capability)
	})

	t.Run("And keep resolving following parameters", func(t *testing.T) {
		injector, err := NewInjector(From(map[string]any{"b": "B"}))
		require.NoError(t, err)
		res, err := injector.Dispatch(ctx, Fn(func(a *Unknown, b string) string {
			return a.Name() + b
		}, "a", "b"), nil)
		assert.NoError(t, err)
		assert.Equal(t, "aB", res)
	})

	t.Run("And pass an unresolved Value", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func(v Value) (any, error) { return v.Get() }, "missing"), nil)
		assert.Nil(t, res)
		assert.EqualError(t, err, "Tried to call capability on an uninjected parameter: missing")
	})

	t.Run("And pass a failing function with an error result", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func(printer func(string) (int, error)) (int, error) {
			return printer("hello")
		}, "printer"), nil)
		assert.Equal(t, 0, res)
		assert.EqualError(t, err, "Tried to call capability on an uninjected parameter: printer")
	})

	t.Run("And pass a failing function without error result", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func(printer func(string)) int {
			printer("hello")
			return 1
		}, "printer"), nil)
		assert.Nil(t, res)
		var unknownErr *UnknownParameterError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "printer", unknownErr.Name)
	})

	t.Run("And fail when the parameter type cannot hold a marker", func(t *testing.T) {
		_, err := injector.Dispatch(ctx, Fn(func(_ string) {
			assert.Fail(t, "should not be reached")
		}, "name"), nil)
		assert.EqualError(t, err, "name")
	})
}

func TestEagerDispatchShouldFailImmediately(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector(From(map[string]any{"b": "B"}))
	require.NoError(t, err)

	res, err := injector.EagerDispatch(ctx, Fn(func(_ any, _ string) int {
		assert.Fail(t, "should not be reached")
		return 42
	}, "unknown", "b"), nil)
	assert.Nil(t, res)
	assert.EqualError(t, err, "unknown")

	var unknownErr *UnknownParameterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "unknown", unknownErr.Name)
	assert.Empty(t, unknownErr.Capability)

	t.Run("And not resolve following parameters", func(t *testing.T) {
		source := &things{}
		injector, err := NewInjector(From(source.capabilities()))
		require.NoError(t, err)
		_, err = injector.EagerDispatch(ctx, Fn(func(_ any, _ []*Thing) {}, "unknown", "two_things"), nil)
		assert.EqualError(t, err, "unknown")
		assert.Equal(t, 0, source.created)
	})
}

func TestZeroParameterCallableShouldAlwaysSucceed(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector()
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func() int { return 7 }), nil)
	assert.NoError(t, err)
	assert.Equal(t, 7, res)

	res, err = injector.EagerDispatch(ctx, Fn(func() int { return 7 }), nil)
	assert.NoError(t, err)
	assert.Equal(t, 7, res)
}

func TestCallableErrorsShouldPropagateUnchanged(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("failed to create thing")
	injector, err := NewInjector(From(Capabilities{
		"thing": Fn(func() (*Thing, error) { return nil, failure }),
	}))
	require.NoError(t, err)

	t.Run("From the dispatched callable", func(t *testing.T) {
		_, err := injector.Dispatch(ctx, Fn(func() error { return failure }), nil)
		assert.Same(t, failure, err)
	})

	t.Run("From a capability", func(t *testing.T) {
		_, err := injector.Dispatch(ctx, Fn(func(_ *Thing) {
			assert.Fail(t, "should not be reached")
		}, "thing"), nil)
		assert.Same(t, failure, err)
	})

	t.Run("Along with the result", func(t *testing.T) {
		res, err := injector.Dispatch(ctx, Fn(func() (int, error) { return 3, failure }), nil)
		assert.Equal(t, 3, res)
		assert.Same(t, failure, err)
	})

	t.Run("Including panics", func(t *testing.T) {
		assert.PanicsWithValue(t, "boom", func() {
			_, _ = injector.Dispatch(ctx, Fn(func() { panic("boom") }), nil)
		})
	})

	t.Run("Including panics of callables given a failing function", func(t *testing.T) {
		assert.PanicsWithValue(t, "boom", func() {
			_, _ = injector.Dispatch(ctx, Fn(func(_ func()) { panic("boom") }, "missing"), nil)
		})
	})
}

func TestShouldReportMismatchingTypes(t *testing.T) {
	ctx := context.Background()
	injector, err := NewInjector(From(map[string]any{"a": "not a thing"}))
	require.NoError(t, err)

	_, err = injector.Dispatch(ctx, Fn(func(_ *Thing) {
		assert.Fail(t, "should not be reached")
	}, "a"), nil)
	assert.ErrorContains(t, err, `Got error while binding parameter "a"`)
	assert.ErrorContains(t, err, "cannot use string as *paraminject.Thing")
}

func TestShouldRejectInvalidSources(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		_, err := NewInjector(From(nil))
		assert.ErrorContains(t, err, "cannot accept nil source (#0)")
	})

	t.Run("of unsupported type", func(t *testing.T) {
		_, err := NewInjector(Module("things", From(map[string]any{}, 42)))
		assert.ErrorContains(t, err, "error while installing module things")
		assert.ErrorContains(t, err, "source #1 of type int is neither a map, a Source nor a Provider")
	})

	t.Run("nil tracer provider", func(t *testing.T) {
		_, err := NewInjector(WithTracerProvider(nil))
		assert.ErrorContains(t, err, "cannot accept nil tracer provider")
	})
}

type countingSource struct {
	lookups []string
}

func (s *countingSource) Provides(name string) bool {
	s.lookups = append(s.lookups, name)
	return name == "counted"
}

func (s *countingSource) Resolve(scope *Scope, name string) (any, error) {
	return fmt.Sprintf("%s:%d", name, len(scope.Overrides())), nil
}

func TestShouldAcceptCustomSources(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{}
	injector, err := NewInjector(From(source, map[string]any{"after": 1}))
	require.NoError(t, err)

	res, err := injector.Dispatch(ctx, Fn(func(c string, a int) string {
		return fmt.Sprintf("%s/%d", c, a)
	}, "counted", "after"), Overrides{"unused": true})
	assert.NoError(t, err)
	assert.Equal(t, "counted:1/1", res)
	assert.Equal(t, []string{"counted", "after"}, source.lookups)
}

func TestConditionalOptions(t *testing.T) {
	ctx := context.Background()
	t.Setenv("PARAMINJECT_TEST_MODE", "test")
	name := Fn(func(mode string) string { return mode }, "mode")

	injector, err := NewInjector(
		When(OnEnvironmentVariable("PARAMINJECT_TEST_MODE", "test", false),
			From(map[string]any{"mode": "test"})),
		When(Not(ConditionFunc(func() bool { return false })),
			From(map[string]any{"mode": "fallback"})),
	)
	require.NoError(t, err)
	res, err := injector.EagerDispatch(ctx, name, nil)
	assert.NoError(t, err)
	assert.Equal(t, "test", res)

	injector, err = NewInjector(
		When(OnEnvironmentVariable("PARAMINJECT_TEST_MODE", "prod", false),
			From(map[string]any{"mode": "prod"})),
		When(OnEnvironmentVariable("PARAMINJECT_TEST_MISSING", "", true),
			From(map[string]any{"mode": "fallback"})),
	)
	require.NoError(t, err)
	res, err = injector.EagerDispatch(ctx, name, nil)
	assert.NoError(t, err)
	assert.Equal(t, "fallback", res)
}
