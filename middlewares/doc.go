// Package middlewares provides HTTP middleware for storefront applications.
//
// # Request ID
//
// RequestID assigns a unique ID to each request for tracing. Incoming
// X-Request-ID style headers are reused; otherwise a UUID is generated.
// Pair it with RequestIDExtractor so every log entry written with the
// request context carries request_id:
//
//	log := logger.New(cfg.Log, logger.WithExtractors(middlewares.RequestIDExtractor()))
//	app := storefront.New(
//	    storefront.WithLogger(log),
//	    storefront.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover and Timeout
//
// Recover turns panics into *PanicError. Timeout puts a deadline on the
// request context and reports *TimeoutError when it passes. Both errors go
// to the ExceptionHandler like any other.
//
// # Input normalization
//
// TrimInput, EmptyStringToNull and SanitizeInput rewrite request input
// before handlers and validators see it. Password fields are never trimmed.
//
// # Access control
//
// RequireAuth, Guest and RequireRole gate routes:
//
//	r.GET("/cart", h.show, middlewares.RequireAuth(users, "/login"))
//	r.POST("/product", h.store,
//	    middlewares.RequireAuth(users, "/login"),
//	    middlewares.RequireRole(roleOf, "admin"),
//	)
//
// Unauthenticated browsers are redirected to the login page; other clients
// get 401 {"error":"Unauthorized"}.
package middlewares
