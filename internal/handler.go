package internal

// Handler declares routes on a router.
//
// Example:
//
//	type ProductHandler struct {
//	    products *model.Repository[Product, *Product]
//	}
//
//	func (h *ProductHandler) Routes(r storefront.Router) {
//	    r.GET("/products/{id}", h.show)
//	    r.POST("/products", h.store, middlewares.RequireRole(roleOf, "admin"))
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// A handler returns the response to send, or an error that the
// ExceptionHandler turns into one.
type HandlerFunc func(r *Request) (*Response, error)

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect or modify the request, short-circuit by returning
// its own response, or decorate the response of next.
//
// Example:
//
//	func Auth(next storefront.HandlerFunc) storefront.HandlerFunc {
//	    return func(r *storefront.Request) (*storefront.Response, error) {
//	        if !isAuthenticated(r) {
//	            return storefront.Redirect("/login"), nil
//	        }
//	        return next(r)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// Chain wraps h with mw so that mw[0] is the outermost layer.
// The chain is built once; each call walks the same closures.
func Chain(h HandlerFunc, mw ...Middleware) HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			h = mw[i](h)
		}
	}
	return h
}
