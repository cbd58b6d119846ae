// Package storefront is a small web kernel for shop-style applications:
// a regex router, a closure middleware pipeline, server-side sessions with
// flash data, content negotiation and one place that turns errors into
// responses.
//
// # Quick Start
//
//	app := storefront.New(
//	    storefront.WithLogger(log),
//	    storefront.WithSession(store),
//	    storefront.WithMiddleware(
//	        middlewares.Recover(),
//	        middlewares.RequestID(),
//	        middlewares.TrimInput(),
//	        middlewares.EmptyStringToNull(),
//	    ),
//	    storefront.WithHandlers(
//	        handlers.NewAuth(users),
//	        handlers.NewProducts(products),
//	    ),
//	)
//
//	if err := app.Run(storefront.Address(":8080"), storefront.Logger(log)); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
//
// # Handlers
//
// Handlers implement the [Handler] interface to declare routes. Paths use
// {name} placeholders; parameters are read with [Request.Param] or the
// typed [Param] helper:
//
//	func (h *Products) Routes(r storefront.Router) {
//	    r.GET("/product/{id}", h.show)
//	    r.POST("/product", h.store, middlewares.RequireAuth(h.auth, "/login"))
//	}
//
//	func (h *Products) show(r *storefront.Request) (*storefront.Response, error) {
//	    id, ok := storefront.Param[int64](r, "id")
//	    if !ok {
//	        return nil, storefront.ErrNotFound("Product not found")
//	    }
//	    p, found, err := h.repo.Find(r.Context(), id)
//	    if err != nil {
//	        return nil, err
//	    }
//	    if !found {
//	        return nil, storefront.ErrNotFound("Product not found")
//	    }
//	    return storefront.JSON(http.StatusOK, p)
//	}
//
// Routes are matched per method in registration order; the first match
// wins. A path that only matches under other methods answers 405.
//
// # Errors
//
// Handlers and middleware return errors instead of writing failure
// responses. The kernel passes each error to the exception handler once:
// validation failures redirect back with flashed errors for browsers and
// answer 422 for JSON clients, [HTTPError] values keep their status, and
// everything else is logged and becomes a 500.
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM for graceful shutdown. Register cleanup
// functions with [ShutdownHook]:
//
//	app.Run(
//	    storefront.ShutdownHook(db.Shutdown(conn)),
//	)
package storefront
