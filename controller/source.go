package controller

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/illuin-tech/paraminject"
)

// requestSource provides the request being served.
type requestSource struct {
	w        middleware.WrapResponseWriter
	r        *http.Request
	action   string
	response *Response
}

func newRequestSource(w middleware.WrapResponseWriter, r *http.Request, action string) paraminject.Capabilities {
	s := &requestSource{w: w, r: r, action: action}
	return paraminject.Capabilities{
		"request":  paraminject.Fn(func() *http.Request { return s.r }),
		"params":   paraminject.Fn(s.params),
		"query":    paraminject.Fn(func() url.Values { return s.r.URL.Query() }),
		"headers":  paraminject.Fn(func() http.Header { return s.r.Header }),
		"response": paraminject.Fn(s.responseFor, paraminject.InjectorName),
	}
}

// params returns the URL parameters of the matched route.
func (s *requestSource) params() map[string]string {
	params := map[string]string{}
	rctx := chi.RouteContext(s.r.Context())
	if rctx == nil {
		return params
	}
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

func (s *requestSource) responseFor(injector *paraminject.Injector) *Response {
	if s.response == nil {
		s.response = &Response{w: s.w, r: s.r, base: basePath(s.r, s.action), injector: injector}
	}
	return s.response
}
