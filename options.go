package storefront

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/health"
)

// App options

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided, around route dispatch.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
// Each handler's Routes method is called during setup.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	storefront.New(
//	    storefront.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	storefront.WithHealthChecks(
//	    storefront.WithReadinessCheck("db", db.Healthcheck(conn)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger sets the application logger used by the kernel, the session
// manager and the exception handler.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithSession enables server-side sessions backed by store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithExceptionOptions configures the exception handler.
func WithExceptionOptions(opts ...ExceptionOption) Option {
	return internal.WithExceptionOptions(opts...)
}

// WithBodyLimit bounds request bodies. Defaults to 10 MiB.
func WithBodyLimit(n int64) Option {
	return internal.WithBodyLimit(n)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Session options

func WithSessionCookieName(name string) SessionOption { return internal.WithSessionCookieName(name) }

// WithSessionLifetime sets the cookie Max-Age. Zero keeps a browser session cookie.
func WithSessionLifetime(d time.Duration) SessionOption { return internal.WithSessionLifetime(d) }

// WithSessionTTL sets how long the store keeps an idle session.
func WithSessionTTL(d time.Duration) SessionOption { return internal.WithSessionTTL(d) }

func WithSessionDomain(domain string) SessionOption { return internal.WithSessionDomain(domain) }
func WithSessionPath(path string) SessionOption     { return internal.WithSessionPath(path) }
func WithSessionSecure(secure bool) SessionOption   { return internal.WithSessionSecure(secure) }
func WithSessionHTTPOnly(on bool) SessionOption     { return internal.WithSessionHTTPOnly(on) }

func WithSessionSameSite(s http.SameSite) SessionOption {
	return internal.WithSessionSameSite(s)
}

// ParseSameSite maps "lax", "strict" and "none" to http.SameSite.
func ParseSameSite(s string) http.SameSite {
	return internal.ParseSameSite(s)
}

// Exception options

// WithDebug exposes error messages and the error chain in 500 responses.
func WithDebug(debug bool) ExceptionOption { return internal.WithDebug(debug) }

// WithErrorPage replaces the HTML error page.
func WithErrorPage(fn ErrorPageFunc) ExceptionOption { return internal.WithErrorPage(fn) }

// WithDontFlash adds inputs that are never flashed back after a failed validation.
func WithDontFlash(keys ...string) ExceptionOption { return internal.WithDontFlash(keys...) }

// Run options. See the internal package for defaults.

func Address(addr string) RunOption             { return internal.Address(addr) }
func Logger(l *slog.Logger) RunOption           { return internal.Logger(l) }
func ShutdownTimeout(d time.Duration) RunOption { return internal.ShutdownTimeout(d) }
func OnListen(fn func(net.Addr)) RunOption      { return internal.OnListen(fn) }
func WithContext(ctx context.Context) RunOption { return internal.WithContext(ctx) }

// ServerTimeouts overrides the http.Server read, write and idle timeouts.
func ServerTimeouts(read, write, idle time.Duration) RunOption {
	return internal.ServerTimeouts(read, write, idle)
}

// ShutdownHook runs fn after the server drained, in registration order.
//
//	storefront.ShutdownHook(db.Shutdown(conn))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}
