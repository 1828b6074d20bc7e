package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteFinder returns the route pattern serving r, or "" when none matches.
type RouteFinder func(r *http.Request) string

// MakeRouteFinder resolves patterns such as "/api/products/{id}" against the
// chi route tree without dispatching the request.
func MakeRouteFinder(routes chi.Routes) RouteFinder {
	return func(r *http.Request) string {
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				return pattern
			}
		}
		return routes.Find(chi.NewRouteContext(), r.Method, r.URL.Path)
	}
}

func routeLabel(find RouteFinder, r *http.Request) string {
	if find != nil {
		if route := find(r); route != "" {
			return route
		}
	}
	return "unmatched"
}
