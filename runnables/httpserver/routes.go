package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Route is a path on the server's mux and the handler chain that serves it.
type Route struct {
	name     string // internal identifier for the route, used for equality checks
	Path     string
	Handlers []HandlerFunc
}

// NewRoute creates a Route whose handlers run in order for every request to path.
func NewRoute(name string, path string, handlers ...HandlerFunc) (*Route, error) {
	if name == "" {
		return nil, errors.New("name cannot be empty")
	}

	if path == "" {
		return nil, errors.New("path cannot be empty")
	}

	if len(handlers) == 0 {
		return nil, errors.New("handlers cannot be empty")
	}

	for i, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("handler %d cannot be nil", i)
		}
	}

	return &Route{
		name:     name,
		Path:     path,
		Handlers: slices.Clone(handlers),
	}, nil
}

// NewRouteFromHandlerFunc adapts a standard http.HandlerFunc into a route. The
// middlewares run first, in the order given, and the handler runs last.
func NewRouteFromHandlerFunc(
	name string,
	path string,
	handler http.HandlerFunc,
	middlewares ...HandlerFunc,
) (*Route, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	final := func(rp *RequestProcessor) {
		handler.ServeHTTP(rp.Writer(), rp.Request())
	}

	return NewRoute(name, path, append(slices.Clone(middlewares), final)...)
}

// NewStackRoute mounts a Stack on path. Mounting on "/" makes the stack see
// every request the mux does not route elsewhere.
func NewStackRoute(name string, path string, stack *Stack, middlewares ...HandlerFunc) (*Route, error) {
	if stack == nil {
		return nil, errors.New("stack cannot be nil")
	}
	return NewRouteFromHandlerFunc(name, path, stack.ServeHTTP, middlewares...)
}

// ServeHTTP runs the route's handler chain.
func (r *Route) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	newRequestProcessor(w, req, r.Handlers).Next()
}

func (r Route) Equal(other Route) bool {
	if r.Path != other.Path {
		return false
	}

	if r.name != other.name {
		return false
	}

	return true
}

// Routes is a list of routes served by one Config.
type Routes []Route

// Equal compares two routes and returns true if they are equal, false otherwise.
// Route names are assumed to uniquely identify a route's behavior, so callers that
// rebuild a handler with new behavior should also give it a new name.
func (r Routes) Equal(other Routes) bool {
	if len(r) != len(other) {
		return false
	}

	oldNames := make([]string, 0, len(r))
	for _, route := range r {
		oldNames = append(oldNames, route.name)
	}
	slices.Sort(oldNames)

	newNames := make([]string, 0, len(other))
	for _, route := range other {
		newNames = append(newNames, route.name)
	}
	slices.Sort(newNames)

	if !slices.Equal(oldNames, newNames) {
		return false
	}

	routeMap := make(map[string]Route)
	for _, route := range r {
		routeMap[route.Path] = route
	}

	for _, otherRoute := range other {
		route, exists := routeMap[otherRoute.Path]
		if !exists || !route.Equal(otherRoute) {
			return false
		}
	}

	return true
}

// String returns a string representation of all routes.
func (r Routes) String() string {
	if len(r) == 0 {
		return "Routes<>"
	}

	var routes []string
	for _, route := range r {
		routes = append(routes, fmt.Sprintf("Name: %s, Path: %s", route.name, route.Path))
	}
	slices.Sort(routes)

	return fmt.Sprintf("Routes<%s>", strings.Join(routes, ", "))
}
