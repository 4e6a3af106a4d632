// Package chi serves dispatch groups from a go-chi router.
//
// A group mounted on a chi router resolves the part of the path that is left
// after chi's own routing, so the same group can be served at the root by
// core/server or nested deep inside an existing chi application:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RealIP)
//	r.Route("/tenants/{tenant}", func(r chi.Router) {
//		relaychi.Mount(r, "/api", api)
//	})
//
// Parameters captured by chi patterns stay reachable from handlers through
// URLParam, since the translated request keeps the original *http.Request
// as its native object.
package chi
