package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/relay/core/message"
	"github.com/dmitrymomot/relay/core/server"
)

// Handler serves d with paths relative to the enclosing chi route.
func Handler(d server.Dispatcher, opts ...server.HandlerOption) http.Handler {
	h := server.NewHandler(d, opts...)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, relative(r))
	})
}

// Mount attaches d to r under pattern.
func Mount(r chi.Router, pattern string, d server.Dispatcher, opts ...server.HandlerOption) {
	r.Mount(pattern, Handler(d, opts...))
}

// URLParam returns a parameter captured by a chi pattern in front of the
// mounted group, or "" when req was not served through chi.
func URLParam(req *message.Request, key string) string {
	hr, ok := req.Native.(*http.Request)
	if !ok {
		return ""
	}
	return chi.URLParam(hr, key)
}

// relative rewrites the request path to the remainder chi has not routed yet.
func relative(r *http.Request) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePath == "" {
		return r
	}
	out := new(http.Request)
	*out = *r
	u := *r.URL
	u.Path = rctx.RoutePath
	u.RawPath = ""
	out.URL = &u
	return out
}
