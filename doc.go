// Package paraminject calls functions with arguments looked up by parameter name.
//
// An Injector holds an ordered chain of sources. Dispatching a Callable resolves each
// of its declared parameter names from the first source providing it, per-call
// Overrides first, and calls it:
//
//	injector, err := paraminject.NewInjector(paraminject.From(
//		map[string]any{"greeting": "hello"},
//		paraminject.Capabilities{
//			"printer": paraminject.Fn(func(w io.Writer) func(string) {
//				return func(s string) { fmt.Fprintln(w, s) }
//			}, "out"),
//		},
//	))
//	...
//	_, err = injector.Dispatch(ctx, paraminject.Fn(func(p func(string), g string) {
//		p(g)
//	}, "printer", "greeting"), paraminject.Overrides{"out": os.Stdout})
//
// Capabilities of a Provider are themselves dispatched, so they may declare parameters
// resolved from the whole chain, overrides included. Every injector provides itself
// under InjectorName; dispatching on the injector received that way is tracked as part
// of the current dispatch, so loops through it fail with a CyclicDependencyError.
//
// Dispatch passes an Unknown marker (or an unresolved Value) for names no source
// provides and only fails if the callable uses it; EagerDispatch fails before calling.
package paraminject
