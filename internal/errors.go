package internal

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrUploadFailed       = errors.New("internal: cannot move the file due to upload error")
	ErrFileAlreadyMoved   = errors.New("internal: the file has already been moved")
	ErrTargetNotWritable  = errors.New("internal: upload target path is not writable")
	ErrMoveFailed         = errors.New("internal: uploaded file could not be moved to target path")
	ErrBodyTooLarge       = errors.New("internal: request body too large")
	ErrMalformedBody      = errors.New("internal: malformed request body")
	ErrSessionUnavailable = errors.New("internal: session not started")
)

// HTTPError represents an HTTP error with all data needed for rendering.
// The ExceptionHandler renders it as an error page or a JSON body
// depending on what the client accepts.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Header carries response headers the error needs, such as Allow on 405.
	Header http.Header

	// Message is the user-facing error message.
	Message string

	// Detail is an optional extended description.
	Detail string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func WithHeader(key, value string) HTTPErrorOption {
	return func(e *HTTPError) {
		if e.Header == nil {
			e.Header = make(http.Header)
		}
		e.Header.Set(key, value)
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

// ErrMethodNotAllowed lists the methods the path does answer in the Allow header.
func ErrMethodNotAllowed(allowed []string, opts ...HTTPErrorOption) *HTTPError {
	opts = append([]HTTPErrorOption{WithHeader("Allow", strings.Join(allowed, ", "))}, opts...)
	return NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed", opts...)
}

func ErrNotAcceptable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotAcceptable, message, opts...)
}

func ErrRequestTooLarge(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusRequestEntityTooLarge, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

// AsHTTPError extracts the HTTPError from an error chain if present.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
