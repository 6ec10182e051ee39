// Package controller serves HTTP requests with injected actions.
//
// Each request gets its own injector whose first source exposes the request
// ("request", "params", "query", "headers" and "response"), followed by the
// application configuration ("env", "debug" and "app_config", see WithConfig),
// the controller's per-request sources and its static options. Actions are
// eager-dispatched: an action declaring a name no source provides fails with
// status 500 before running.
package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/illuin-tech/paraminject"
	"github.com/illuin-tech/paraminject/config"
)

var (
	// ErrUnknownAction is returned when serving an action the controller does not define.
	ErrUnknownAction = errors.New("unknown action")
	// ErrMissingID is returned when redirecting to a member action without a resource id.
	ErrMissingID = errors.New("missing resource id")
)

// Actions maps action names to the callables serving them.
type Actions map[string]*paraminject.Callable

// SourceFactory builds a source for one request. See paraminject.From for accepted sources.
type SourceFactory func(r *http.Request) any

// Controller projects a set of injected actions onto HTTP handlers.
type Controller struct {
	actions Actions
	config  *config.Config
	sources []SourceFactory
	options []paraminject.Option
}

// New returns a Controller serving actions. Sources given later take precedence over
// earlier ones; the request source always comes first.
func New(actions Actions, sources ...SourceFactory) *Controller {
	return &Controller{actions: actions, sources: sources}
}

// Use appends options applied to every request injector after the request and
// per-request sources, such as paraminject.From with application-wide sources.
func (c *Controller) Use(options ...paraminject.Option) *Controller {
	c.options = append(c.options, options...)
	return c
}

// WithConfig exposes cfg to every action through its Source, right after the request.
func (c *Controller) WithConfig(cfg *config.Config) *Controller {
	c.config = cfg
	return c
}

// Handler returns the http.HandlerFunc serving action.
//
// Errors are answered with status 500 (404 for an unknown action). When the action writes
// nothing, a non-nil result is rendered as JSON and a nil one answers 204.
func (c *Controller) Handler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		res, err := c.serve(ww, r, action)
		if err != nil {
			if ww.Status() != 0 {
				return
			}
			status := http.StatusInternalServerError
			if errors.Is(err, ErrUnknownAction) {
				status = http.StatusNotFound
			}
			http.Error(ww, err.Error(), status)
			return
		}
		if ww.Status() != 0 {
			return
		}
		if res == nil {
			ww.WriteHeader(http.StatusNoContent)
			return
		}
		if err := writeJSON(ww, http.StatusOK, res); err != nil {
			http.Error(ww, err.Error(), http.StatusInternalServerError)
		}
	}
}

func (c *Controller) serve(w middleware.WrapResponseWriter, r *http.Request, action string) (any, error) {
	callable, ok := c.actions[action]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}

	options := make([]paraminject.Option, 0, len(c.sources)+len(c.options)+2)
	options = append(options, paraminject.From(newRequestSource(w, r, action)))
	if c.config != nil {
		options = append(options, paraminject.From(c.config.Source()))
	}
	for i := len(c.sources) - 1; i >= 0; i-- {
		options = append(options, paraminject.Module(
			fmt.Sprintf("request source #%d", i), paraminject.From(c.sources[i](r))))
	}
	options = append(options, c.options...)

	injector, err := paraminject.NewInjector(options...)
	if err != nil {
		return nil, err
	}
	return injector.EagerDispatch(r.Context(), callable, nil)
}

type route struct {
	method string
	suffix string
	action string
}

var resourceRoutes = []route{
	{http.MethodGet, "", "index"},
	{http.MethodPost, "", "create"},
	{http.MethodGet, "/{id}", "show"},
	{http.MethodPut, "/{id}", "update"},
	{http.MethodPatch, "/{id}", "update"},
	{http.MethodDelete, "/{id}", "destroy"},
}

func isResourceAction(action string) bool {
	for _, rt := range resourceRoutes {
		if rt.action == action {
			return true
		}
	}
	return false
}

// Mount registers the actions of c under pattern.
//
//	GET    /photos            → index
//	POST   /photos            → create
//	GET    /photos/{id}       → show
//	PUT    /photos/{id}       → update
//	PATCH  /photos/{id}       → update
//	DELETE /photos/{id}       → destroy
//	GET    /photos/{action}   → any other action (POST too)
func Mount(r chi.Router, pattern string, c *Controller) {
	pattern = strings.TrimSuffix(pattern, "/")
	for action := range c.actions {
		if isResourceAction(action) {
			continue
		}
		r.Get(pattern+"/"+action, c.Handler(action))
		r.Post(pattern+"/"+action, c.Handler(action))
	}
	for _, rt := range resourceRoutes {
		if _, ok := c.actions[rt.action]; !ok {
			continue
		}
		p := pattern + rt.suffix
		if p == "" {
			p = "/"
		}
		r.Method(rt.method, p, c.Handler(rt.action))
	}
}

// basePath returns the path the controller serving r is mounted at, given the action
// r is routed to.
func basePath(r *http.Request, action string) string {
	p := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case action == "index" || action == "create":
		return p
	case isResourceAction(action):
		return strings.TrimSuffix(p, "/"+chi.URLParam(r, "id"))
	default:
		return strings.TrimSuffix(p, "/"+action)
	}
}

// actionPath returns the path of action under base. Member actions need an id.
func actionPath(base, action, id string) (string, error) {
	switch {
	case action == "index" || action == "create":
		if base == "" {
			return "/", nil
		}
		return base, nil
	case isResourceAction(action):
		if id == "" {
			return "", fmt.Errorf("%w: %q needs an id", ErrMissingID, action)
		}
		return base + "/" + url.PathEscape(id), nil
	default:
		return base + "/" + action, nil
	}
}

// NewRouter creates a chi router with request logging, panic recovery and real IP
// resolution.
func NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	return r
}
