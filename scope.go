package paraminject

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxDepth bounds nested dispatches that do not go through named capabilities,
// such as custom sources calling Scope.Dispatch.
const maxDepth = 256

type unknownPolicy int

const (
	deferUnknown unknownPolicy = iota // pass an Unknown marker
	failUnknown                       // return an UnknownParameterError
)

func (p unknownPolicy) String() string {
	if p == failUnknown {
		return "eager"
	}
	return "lazy"
}

// Scope holds the state of one top-level dispatch: its context, its overrides and the
// names whose resolution is in progress. It is shared by every nested resolution of that
// dispatch and must not be retained or used concurrently.
type Scope struct {
	ctx       context.Context
	injector  *Injector
	overrides *MapSource

	mu        sync.Mutex // guards resolving and depth against readers of other dispatches
	resolving []string
	depth     int
}

func newScope(ctx context.Context, injector *Injector, overrides Overrides) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Scope{
		ctx:       ctx,
		injector:  injector,
		overrides: NewMapSource(overrides),
	}
	if injector.outer != nil {
		s.resolving, s.depth = injector.outer.progress()
	}
	return s
}

// progress returns a copy of the names being resolved and the nesting depth.
func (s *Scope) progress() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.resolving), s.depth
}

func (s *Scope) enter(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.resolving = append(s.resolving, name)
	}
	s.depth++
}

func (s *Scope) leave(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.resolving = s.resolving[:len(s.resolving)-1]
	}
	s.depth--
}

// Context returns the context of the current resolution.
func (s *Scope) Context() context.Context { return s.ctx }

// Injector returns the injector the dispatch runs on.
func (s *Scope) Injector() *Injector { return s.injector }

// Overrides returns a copy of the overrides of the dispatch.
func (s *Scope) Overrides() Overrides { return maps.Clone(Overrides(s.overrides.values)) }

// Dispatch resolves the parameters of c within this scope and invokes it.
// Unresolved names are passed as Unknown markers.
func (s *Scope) Dispatch(c *Callable) (any, error) {
	return s.dispatch(c, deferUnknown)
}

func (s *Scope) dispatch(c *Callable, policy unknownPolicy) (any, error) {
	if c == nil {
		return nil, newInvalidInputError("can't dispatch on nil callable")
	}
	if c.err != nil {
		return nil, c.err
	}
	if s.depth >= maxDepth {
		return nil, newNestingLimitError(s.resolving, maxDepth)
	}
	s.enter("")
	defer s.leave("")

	args := make([]reflect.Value, len(c.names))
	stubs := false
	for i, name := range c.names {
		arg, stub, err := s.argument(name, c.types[i], policy)
		if err != nil {
			return nil, err
		}
		args[i] = arg
		stubs = stubs || stub
	}
	if !stubs {
		return c.call(args)
	}
	return invoke(c, args)
}

// argument binds name to a parameter of type t. stub reports whether the argument is a
// function standing in for an unresolved name.
func (s *Scope) argument(name string, t reflect.Type, policy unknownPolicy) (arg reflect.Value, stub bool, err error) {
	source := s.lookup(name)
	if source == nil {
		if policy == deferUnknown {
			if marker, ok := bindUnresolved(name, t); ok {
				return marker, t.Kind() == reflect.Func, nil
			}
		}
		return reflect.Value{}, false, newUnknownParameterError(name)
	}

	v, err := source.Resolve(s, name)
	if err != nil {
		return reflect.Value{}, false, err
	}
	arg, err = bindResolved(name, t, v)
	return arg, false, err
}

// lookup returns the first source providing name, overrides first.
func (s *Scope) lookup(name string) Source {
	if s.overrides.Provides(name) {
		return s.overrides
	}
	for _, source := range s.injector.sources {
		if source.Provides(name) {
			return source
		}
	}
	return nil
}

// resolveCapability dispatches the callable behind a named capability, failing if the
// name is already being resolved further up.
func (s *Scope) resolveCapability(name string, c *Callable) (any, error) {
	if slices.Contains(s.resolving, name) {
		return nil, newCyclicDependencyError(s.resolving, name)
	}
	s.enter(name)
	parent := s.ctx
	ctx, span := s.injector.tracer.Start(parent, "paraminject.Resolve",
		trace.WithAttributes(attribute.String("paraminject.name", name)))
	s.ctx = ctx
	defer func() {
		span.End()
		s.ctx = parent
		s.leave(name)
	}()

	v, err := s.dispatch(c, deferUnknown)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

// invoke calls c, turning a panic raised by an unresolved function marker into its error.
// It is only used when such a marker was bound: other panics are raised again.
func invoke(c *Callable, args []reflect.Value) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*UnknownParameterError); ok && e.lazy {
				res, err = nil, e
				return
			}
			panic(r)
		}
	}()
	return c.call(args)
}
