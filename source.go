package paraminject

import (
	"maps"
)

// Source supplies values for parameter names.
type Source interface {
	// Provides reports whether the source can supply a value for name.
	Provides(name string) bool

	// Resolve returns the value for name. It is only called when Provides(name) is true.
	// The scope carries the state of the dispatch the resolution belongs to.
	Resolve(scope *Scope, name string) (any, error)
}

// Overrides binds names to values for a single dispatch, ahead of every configured source.
type Overrides map[string]any

// MapSource is a fixed snapshot of names to values.
// A name mapped to nil is provided and resolves to nil.
type MapSource struct {
	values map[string]any
}

var _ Source = &MapSource{}

// NewMapSource returns a MapSource holding a copy of values.
func NewMapSource(values map[string]any) *MapSource {
	return &MapSource{values: maps.Clone(values)}
}

func (s *MapSource) Provides(name string) bool {
	_, ok := s.values[name]
	return ok
}

func (s *MapSource) Resolve(_ *Scope, name string) (any, error) {
	return s.values[name], nil
}

// selfSource provides the dispatching injector under InjectorName.
type selfSource struct{}

func (selfSource) Provides(name string) bool { return name == InjectorName }

func (selfSource) Resolve(scope *Scope, _ string) (any, error) {
	return scope.injector.within(scope), nil
}

// Provider exposes named capabilities. A capability's parameters are resolved by the
// injector like those of any dispatched callable.
type Provider interface {
	Capability(name string) (*Callable, bool)
}

// Capabilities is a Provider backed by a map of names to callables.
type Capabilities map[string]*Callable

var _ Provider = Capabilities{}

func (c Capabilities) Capability(name string) (*Callable, bool) {
	callable, ok := c[name]
	return callable, ok && callable != nil
}

// ObjectSource provides the capabilities of a Provider, dispatching the capability's
// callable through the injector to produce each value.
type ObjectSource struct {
	provider Provider
}

var _ Source = &ObjectSource{}

func NewObjectSource(provider Provider) *ObjectSource {
	return &ObjectSource{provider: provider}
}

func (s *ObjectSource) Provides(name string) bool {
	_, ok := s.provider.Capability(name)
	return ok
}

func (s *ObjectSource) Resolve(scope *Scope, name string) (any, error) {
	callable, _ := s.provider.Capability(name)
	return scope.resolveCapability(name, callable)
}

// asSource wraps a raw source given to From into a Source.
func asSource(raw any) (Source, bool) {
	switch s := raw.(type) {
	case Source:
		return s, true
	case Provider:
		return NewObjectSource(s), true
	case Overrides:
		return NewMapSource(s), true
	case map[string]any:
		return NewMapSource(s), true
	default:
		return nil, false
	}
}
