// Package internal provides the core types and implementation for the storefront framework.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/storefront" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: chi mux for probes and static files in front of the kernel, plus graceful shutdown
//   - Request: negotiated content types, merged input, uploaded files, route params, session
//   - Response: status, headers and body returned by handlers
//   - Router: interface handlers use to declare routes with {param} patterns and groups
//   - Handler: interface implemented by types that declare routes on a router
//   - HandlerFunc and Middleware: the handler signature and its closure chain
//   - ExceptionHandler: turns every error into the response the client sees
//   - SessionManager: session cookie, flash aging and persistence per request
//
// # Request Lifecycle
//
// For each request that is not a health probe or a static file:
//
//  1. NewRequest reads the query string and body, bounded by WithBodyLimit.
//  2. The SessionManager loads the session named by the cookie or starts a new one.
//  3. The global middleware chain runs, then the router resolves the route by
//     scanning routes for the method in registration order. The first match wins.
//  4. The route's own middleware chain runs and ends in the handler.
//  5. A returned error goes to the ExceptionHandler once.
//  6. Flash data is aged and the session is saved before the response is written.
//
// # Routing
//
// Patterns use {name} segments that match one path segment. Trailing slashes
// are ignored except for the root path:
//
//	func (h *ProductHandler) Routes(r internal.Router) {
//	    r.GET("/products/{id}", h.show)
//	    r.Route("/admin", func(r internal.Router) {
//	        r.Use(requireAdmin)
//	        r.POST("/products", h.store)
//	    })
//	}
//
// A path that matches no route is a 404 HTTPError. A path that matches only
// under other methods is a 405 with an Allow header.
//
// # Content Negotiation
//
// The ExceptionHandler looks at the first Accept entry to decide between an
// HTML answer and a JSON one. A validation failure on an HTML request redirects
// back with errors and old input flashed; a JSON client gets 422:
//
//	{"message": "The given data was invalid.", "errors": {"quantity": "This field must be greater than 1"}}
//
// Other errors are rendered as an error page or {"error": ..., "status": ...}.
// Unclassified errors are logged and become a 500 whose details are only shown
// with WithDebug(true).
package internal
