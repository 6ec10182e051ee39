package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/illuin-tech/paraminject"
)

// Response writes the outcome of an action. It is injected under the name "response".
type Response struct {
	w        middleware.WrapResponseWriter
	r        *http.Request
	base     string
	injector *paraminject.Injector
}

// Written reports whether a status has already been sent.
func (res *Response) Written() bool {
	return res.w.Status() != 0
}

// Header sets a response header. It has no effect once the response is written.
func (res *Response) Header(name, value string) {
	res.w.Header().Set(name, value)
}

// Render writes body as JSON with the given status.
func (res *Response) Render(status int, body any) error {
	return writeJSON(res.w, status, body)
}

// Default renders vars as JSON with status 200.
func (res *Response) Default(vars map[string]any) error {
	if vars == nil {
		vars = map[string]any{}
	}
	return writeJSON(res.w, http.StatusOK, vars)
}

// Text writes body as plain text with the given status.
func (res *Response) Text(status int, body string) error {
	res.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.w.WriteHeader(status)
	_, err := res.w.Write([]byte(body))
	return err
}

// SendData writes raw data with the given content type and status 200.
func (res *Response) SendData(contentType string, data []byte) error {
	res.w.Header().Set("Content-Type", contentType)
	res.w.WriteHeader(http.StatusOK)
	_, err := res.w.Write(data)
	return err
}

// Head sends only a status.
func (res *Response) Head(status int) {
	res.w.WriteHeader(status)
}

// RedirectTo redirects to url with status 302.
func (res *Response) RedirectTo(url string) {
	http.Redirect(res.w, res.r, url, http.StatusFound)
}

// RedirectToAction redirects to another action of the controller serving the request.
// Member actions (show, update, destroy) keep the {id} of the current request and fail
// when it has none; see RedirectToMember.
func (res *Response) RedirectToAction(action string) error {
	return res.RedirectToMember(action, chi.URLParam(res.r, "id"))
}

// RedirectToMember redirects to action of the controller for the resource id.
// Nothing is written when it fails.
func (res *Response) RedirectToMember(action, id string) error {
	path, err := actionPath(res.base, action, id)
	if err != nil {
		return err
	}
	res.RedirectTo(path)
	return nil
}

// RespondWith dispatches the capability of formats named after the requested format
// ("json", "html", "text" or the "format" query parameter) through the injector.
// It responds 406 when formats has no such capability.
func (res *Response) RespondWith(formats paraminject.Provider) (any, error) {
	callable, ok := formats.Capability(Format(res.r))
	if !ok {
		res.Head(http.StatusNotAcceptable)
		return nil, nil
	}
	return res.injector.Dispatch(res.r.Context(), callable, nil)
}

// Format returns the format requested by r: the "format" query parameter if present,
// otherwise the first known media type of the Accept header, "html" by default.
func Format(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mediaType {
		case "application/json":
			return "json"
		case "text/html":
			return "html"
		case "text/plain":
			return "text"
		}
	}
	return "html"
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
