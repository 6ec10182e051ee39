package paraminject

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InjectorName is the name under which every Injector provides itself.
const InjectorName = "injector"

const tracerName = "github.com/illuin-tech/paraminject"

// Injector resolves the parameters of callables by name from an ordered chain of sources.
// Earlier sources win. The chain always ends with a source providing the injector itself
// under InjectorName.
type Injector struct {
	sources []Source
	tracer  trace.Tracer

	outer *Scope // dispatch this injector was handed to, if any
}

// NewInjector builds up a new Injector out of a list of Options
func NewInjector(options ...Option) (*Injector, error) {
	mod := &configuration{
		tracerProvider: otel.GetTracerProvider(),
	}

	for _, o := range options {
		err := o.apply(mod)
		if err != nil {
			return nil, err
		}
	}

	sources := make([]Source, 0, len(mod.sources)+1)
	for i, raw := range mod.sources {
		source, ok := asSource(raw)
		if !ok {
			return nil, newInjectorConfigurationError(
				fmt.Sprintf("source #%d of type %T is neither a map, a Source nor a Provider", i, raw), nil)
		}
		sources = append(sources, source)
	}

	injector := &Injector{
		tracer: mod.tracerProvider.Tracer(tracerName),
	}
	injector.sources = append(sources, selfSource{})
	return injector, nil
}

// within returns the injector as seen by callables of the dispatch s: dispatches on it
// start from the names s is resolving at that time.
func (injector *Injector) within(s *Scope) *Injector {
	return &Injector{sources: injector.sources, tracer: injector.tracer, outer: s}
}

// Sources returns the source chain in priority order, the injector's own source last.
// Injectors resolved under InjectorName share the chain of the injector they come from.
func (injector *Injector) Sources() []Source {
	return append([]Source(nil), injector.sources...)
}

// Dispatch resolves the parameters of c and calls it.
// overrides take precedence over every source, for c and every nested resolution.
// A name no source provides is passed as an Unknown marker (see Value and Unknown);
// only using the marker fails.
//
// Errors returned by c or by the capabilities it depends on are returned unchanged.
func (injector *Injector) Dispatch(ctx context.Context, c *Callable, overrides Overrides) (any, error) {
	return injector.dispatch(ctx, c, overrides, deferUnknown)
}

// EagerDispatch is Dispatch failing with an *UnknownParameterError on the first
// parameter no source provides, without calling c.
func (injector *Injector) EagerDispatch(ctx context.Context, c *Callable, overrides Overrides) (any, error) {
	return injector.dispatch(ctx, c, overrides, failUnknown)
}

func (injector *Injector) dispatch(
	ctx context.Context,
	c *Callable,
	overrides Overrides,
	policy unknownPolicy,
) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var parameters int
	if c != nil {
		parameters = len(c.names)
	}
	ctx, span := injector.tracer.Start(ctx, "paraminject.Dispatch", trace.WithAttributes(
		attribute.String("paraminject.mode", policy.String()),
		attribute.Int("paraminject.parameters", parameters),
	))
	defer span.End()

	res, err := newScope(ctx, injector, overrides).dispatch(c, policy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}
