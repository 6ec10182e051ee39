package paraminject

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

type configuration struct {
	sources        []any
	tracerProvider trace.TracerProvider
}

// Option enable to configure the given injector
type Option interface {
	apply(*configuration) error
}

type moduleOption struct {
	name    string
	options []Option
}

func (o *moduleOption) apply(mod *configuration) error {
	for _, opt := range o.options {
		err := opt.apply(mod)
		if err != nil {
			return newInjectorConfigurationError(
				fmt.Sprintf("error while installing module %s", o.name), err)
		}
	}
	return nil
}

// Module group a list of Option in order to easily reuse them.
// the Module name is used in error when applying Option to easily find misconfigured options.
func Module(name string, opts ...Option) Option {
	mo := &moduleOption{
		name:    name,
		options: opts,
	}
	return mo
}

type fromOption struct {
	sources []any
}

func (o *fromOption) apply(mod *configuration) error {
	for i, s := range o.sources {
		if s == nil {
			return newInjectorConfigurationError(fmt.Sprintf("cannot accept nil source (#%d)", i), nil)
		}
		if _, ok := asSource(s); !ok {
			return newInjectorConfigurationError(
				fmt.Sprintf("source #%d of type %T is neither a map, a Source nor a Provider", i, s), nil)
		}
	}
	mod.sources = append(mod.sources, o.sources...)
	return nil
}

// From appends sources to the chain, in priority order.
// A source is a map[string]any (or Overrides) snapshot, a Provider whose capabilities are
// dispatched, or any Source implementation.
func From(sources ...any) Option {
	return &fromOption{sources: sources}
}

type tracerProviderOption struct {
	tracerProvider trace.TracerProvider
}

func (o *tracerProviderOption) apply(mod *configuration) error {
	if o.tracerProvider == nil {
		return newInjectorConfigurationError("cannot accept nil tracer provider", nil)
	}
	mod.tracerProvider = o.tracerProvider
	return nil
}

// WithTracerProvider sets the provider of the tracer recording dispatch spans.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return &tracerProviderOption{tracerProvider: tp}
}

type whenOption struct {
	condition Conditional
	options   []Option
}

func (o *whenOption) apply(mod *configuration) error {
	if o.condition.evaluate() {
		for _, opt := range o.options {
			if err := opt.apply(mod); err != nil {
				return err
			}
		}
	}

	return nil
}

// When enable to group a list of Option that will be applied only if the given Conditional evaluate to true
func When(condition Conditional, options ...Option) Option {
	return &whenOption{
		condition: condition,
		options:   options,
	}
}
