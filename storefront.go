package storefront

import (
	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

// Type aliases - public API
type (
	// App orchestrates the application lifecycle.
	// It owns the chi mux, the kernel and graceful shutdown.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Request is the per-request view handlers and middleware work with.
	Request = internal.Request

	// Response is what a handler returns; the kernel writes it once.
	Response = internal.Response

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// ExceptionOption configures the exception handler.
	ExceptionOption = internal.ExceptionOption

	// ErrorPageFunc renders the HTML body of an error page.
	ErrorPageFunc = internal.ErrorPageFunc

	// HTTPError is an error with a status code the client is allowed to see.
	HTTPError = internal.HTTPError

	// UploadedFile is one file from a multipart request.
	UploadedFile = internal.UploadedFile

	// ValidationError carries one message per failed field.
	ValidationError = validation.ValidationError

	// ContextExtractor extracts a slog attribute from context.
	// Used with logger.WithExtractors to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// Session represents a user session.
	Session = session.Session

	// SessionStore defines the interface for session persistence.
	SessionStore = session.Store
)

// EmptyFile stands in for a file input that was submitted without a file.
var EmptyFile = internal.EmptyFile

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := storefront.New(
//	    storefront.WithLogger(log),
//	    storefront.WithSession(store),
//	    storefront.WithMiddleware(middlewares.Recover(), middlewares.TrimInput()),
//	    storefront.WithHandlers(
//	        handlers.NewAuth(users),
//	        handlers.NewProducts(products),
//	    ),
//	)
//
//	err := app.Run(storefront.Address(":8080"), storefront.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// Chain wraps h with mw; the first middleware is the outermost.
func Chain(h HandlerFunc, mw ...Middleware) HandlerFunc {
	return internal.Chain(h, mw...)
}

// Responses

// JSON encodes v as the response body.
func JSON(status int, v any) (*Response, error) {
	return internal.JSON(status, v)
}

// HTML returns an HTML response.
func HTML(status int, body string) *Response {
	return internal.HTML(status, body)
}

// Text returns a plain text response.
func Text(status int, body string) *Response {
	return internal.Text(status, body)
}

// Redirect returns a 302 to location.
func Redirect(location string) *Response {
	return internal.Redirect(location)
}

// RedirectWithStatus returns a redirect with a custom status.
func RedirectWithStatus(status int, location string) *Response {
	return internal.RedirectWithStatus(status, location)
}

// NoContent returns a 204.
func NoContent() *Response {
	return internal.NoContent()
}

// HTTP errors

func ErrBadRequest(message string) *HTTPError   { return internal.ErrBadRequest(message) }
func ErrUnauthorized(message string) *HTTPError { return internal.ErrUnauthorized(message) }
func ErrForbidden(message string) *HTTPError    { return internal.ErrForbidden(message) }
func ErrNotFound(message string) *HTTPError     { return internal.ErrNotFound(message) }
func ErrInternal(message string) *HTTPError     { return internal.ErrInternal(message) }

// NewHTTPError creates an HTTPError with an arbitrary status.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// AsHTTPError extracts an HTTPError from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	return internal.AsHTTPError(err)
}

// DefaultErrorPage is the built-in HTML error page.
func DefaultErrorPage(code int, message string) string {
	return internal.DefaultErrorPage(code, message)
}

// Generic helpers

// Param converts a route parameter. ok is false when it cannot be parsed.
//
//	id, ok := storefront.Param[int64](r, "id")
//	if !ok {
//	    return nil, storefront.ErrNotFound("Product not found")
//	}
func Param[T internal.Scalar](r *Request, name string) (T, bool) {
	return internal.Param[T](r, name)
}

// InputDefault converts a string input, falling back to defaultValue.
func InputDefault[T internal.Scalar](r *Request, key string, defaultValue T) T {
	return internal.InputDefault(r, key, defaultValue)
}

// ContextValue returns a request-scoped value stored with SetValue.
func ContextValue[T any](r *Request, key any) T {
	return internal.ContextValue[T](r, key)
}
