package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/storefront/pkg/health"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

// Server defaults. RunOptions override all but the header limits.
const (
	defaultAddress           = ":8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App orchestrates the application lifecycle.
// A chi mux serves health probes and static files; every other request
// goes through the kernel: session start, the global middleware chain,
// route resolution and the route's own chain. Errors from any of these
// reach the ExceptionHandler once.
// App is immutable after creation - all configuration is done via New().
type App struct {
	mux            chi.Router
	routes         *routeTable
	kernel         HandlerFunc
	exceptions     *ExceptionHandler
	sessionManager *SessionManager
	healthConfig   *healthConfig
	logger         *slog.Logger
	exceptionOpts  []ExceptionOption
	middlewares    []Middleware
	handlers       []Handler
	staticRoutes   []staticRoute
	maxBodyBytes   int64
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := storefront.New(
//	    storefront.WithMiddleware(middlewares.Recover(), middlewares.TrimInput()),
//	    storefront.WithHandlers(
//	        handlers.NewAuth(users),
//	        handlers.NewProducts(products),
//	    ),
//	)
func New(opts ...Option) *App {
	a := &App{
		mux:          chi.NewRouter(),
		routes:       newRouteTable(),
		logger:       logger.NewNope(), // Default: noop logger (before options)
		maxBodyBytes: DefaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}
	a.exceptions = NewExceptionHandler(append([]ExceptionOption{WithExceptionLogger(a.logger)}, a.exceptionOpts...)...)

	a.setupRoutes()
	return a
}

// Router returns the chi mux in front of the kernel.
func (a *App) Router() chi.Router {
	return a.mux
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until shutdown.
//
// Example:
//
//	app := storefront.New(
//	    storefront.WithHandlers(handlers.NewProducts(products)),
//	)
//	err := app.Run(storefront.Address(":8080"), storefront.Logger(log))
func (a *App) Run(opts ...RunOption) error {
	return runServer(a, newServerConfig(opts...))
}

// setupRoutes registers handler routes in the kernel and mounts probes,
// static files and the kernel on the mux.
func (a *App) setupRoutes() {
	r := &routerAdapter{table: a.routes}
	for _, h := range a.handlers {
		h.Routes(r)
	}
	a.kernel = Chain(a.routes.dispatch, a.middlewares...)

	for _, sr := range a.staticRoutes {
		a.mux.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		a.mux.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.mux.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthConfig.checks,
			health.WithLogger(a.logger),
		))
	}

	kernel := http.HandlerFunc(a.handle)
	a.mux.Handle("/*", kernel)
	a.mux.NotFound(kernel)
	a.mux.MethodNotAllowed(kernel)
}

// handle runs one request through the kernel.
func (a *App) handle(w http.ResponseWriter, hr *http.Request) {
	req, err := NewRequest(hr, WithMaxBodyBytes(a.maxBodyBytes), WithRequestLogger(a.logger))

	if err == nil && a.sessionManager != nil {
		req.session, err = a.sessionManager.Start(req.Context(), hr)
	}

	var resp *Response
	if err == nil {
		resp, err = a.kernel(req)
	}
	if err != nil {
		resp = a.exceptions.Handle(req, err)
	}
	if resp == nil {
		resp = NoContent()
	}

	if a.sessionManager != nil && req.session != nil {
		cookie, err := a.sessionManager.Commit(req.Context(), req.session)
		switch {
		case err != nil:
			resp = a.exceptions.Handle(req, err)
		case cookie != nil:
			resp.WithCookie(cookie)
		}
	}

	for k, vals := range req.respHeader {
		w.Header()[k] = vals
	}
	resp.write(w, req.IsHead())
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	storefront.WithReadinessCheck("db", db.Healthcheck(conn))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
