package internal

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

// Router is the interface handlers use to declare routes.
// It provides HTTP method routing and grouping capabilities.
type Router interface {
	// GET registers a handler for GET requests. HEAD requests are served
	// by GET routes.
	GET(path string, h HandlerFunc, mw ...Middleware)

	// POST registers a handler for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// PUT registers a handler for PUT requests.
	PUT(path string, h HandlerFunc, mw ...Middleware)

	// PATCH registers a handler for PATCH requests.
	PATCH(path string, h HandlerFunc, mw ...Middleware)

	// DELETE registers a handler for DELETE requests.
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// Group creates an inline route group with its own middleware stack.
	Group(fn func(r Router))

	// Route creates a route group with a pattern prefix.
	Route(prefix string, fn func(r Router))

	// Use appends middleware for routes registered after the call.
	Use(mw ...Middleware)
}

var paramPattern = regexp.MustCompile(`\{([^/{}]+)\}`)

// route is one compiled pattern. Its handler already carries the route's
// middleware chain.
type route struct {
	regex   *regexp.Regexp
	handler HandlerFunc
	pattern string
	params  []string
}

// compileRoute turns "/products/{id}" into ^/products/([^/]+)$.
func compileRoute(pattern string) (*route, error) {
	pattern = normalizePath(pattern)

	var (
		b      strings.Builder
		params []string
		last   int
	)
	b.WriteString("^")
	for _, loc := range paramPattern.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		name := pattern[loc[2]:loc[3]]
		if slices.Contains(params, name) {
			return nil, fmt.Errorf("internal: duplicate route parameter %q in %q", name, pattern)
		}
		params = append(params, name)
		b.WriteString("([^/]+)")
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("internal: compile route %q: %w", pattern, err)
	}
	return &route{regex: re, pattern: pattern, params: params}, nil
}

// match returns the captured parameter values in pattern order.
func (rt *route) match(path string) ([]string, bool) {
	m := rt.regex.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// normalizePath strips trailing slashes except on the root path.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// routeTable holds routes per method in registration order.
type routeTable struct {
	routes map[string][]*route
}

func newRouteTable() *routeTable {
	return &routeTable{routes: make(map[string][]*route)}
}

func (t *routeTable) add(method string, rt *route) {
	t.routes[method] = append(t.routes[method], rt)
}

// resolve scans the method's routes in registration order; the first match
// wins. A path that only matches under other methods is a 405.
func (t *routeTable) resolve(method, path string) (*route, []string, error) {
	path = normalizePath(path)
	for _, rt := range t.routes[method] {
		if values, ok := rt.match(path); ok {
			return rt, values, nil
		}
	}

	var allowed []string
	for m, routes := range t.routes {
		if m == method {
			continue
		}
		for _, rt := range routes {
			if _, ok := rt.match(path); ok {
				allowed = append(allowed, m)
				break
			}
		}
	}
	if len(allowed) > 0 {
		if slices.Contains(allowed, http.MethodGet) {
			allowed = append(allowed, http.MethodHead)
		}
		slices.Sort(allowed)
		return nil, nil, ErrMethodNotAllowed(allowed)
	}
	return nil, nil, ErrNotFound("No route found for this request")
}

// dispatch resolves the route, binds its parameters and runs it.
func (t *routeTable) dispatch(r *Request) (*Response, error) {
	rt, values, err := t.resolve(r.Method(), r.Path())
	if err != nil {
		return nil, err
	}
	r.setParams(rt.params, values)
	return rt.handler(r)
}

// routerAdapter registers routes into a table with a prefix and an
// inherited middleware stack.
type routerAdapter struct {
	table       *routeTable
	prefix      string
	middlewares []Middleware
}

func (r *routerAdapter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodGet, path, h, mw...)
}

func (r *routerAdapter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPost, path, h, mw...)
}

func (r *routerAdapter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPut, path, h, mw...)
}

func (r *routerAdapter) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPatch, path, h, mw...)
}

func (r *routerAdapter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodDelete, path, h, mw...)
}

func (r *routerAdapter) Group(fn func(Router)) {
	fn(&routerAdapter{
		table:       r.table,
		prefix:      r.prefix,
		middlewares: slices.Clone(r.middlewares),
	})
}

func (r *routerAdapter) Route(prefix string, fn func(Router)) {
	fn(&routerAdapter{
		table:       r.table,
		prefix:      joinPath(r.prefix, prefix),
		middlewares: slices.Clone(r.middlewares),
	})
}

func (r *routerAdapter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// handle panics on an invalid pattern: routes are declared at startup.
func (r *routerAdapter) handle(method, path string, h HandlerFunc, mw ...Middleware) {
	rt, err := compileRoute(joinPath(r.prefix, path))
	if err != nil {
		panic(err)
	}
	stack := append(slices.Clone(r.middlewares), mw...)
	rt.handler = Chain(h, stack...)
	r.table.add(method, rt)
}

func joinPath(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return normalizePath(path)
	}
	return normalizePath(strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(path, "/"))
}
