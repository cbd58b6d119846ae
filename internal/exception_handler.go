package internal

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

// Flash keys written for a failed validation on an HTML request.
const (
	FlashErrorsKey = "errors"
	FlashOldKey    = "old"
)

// fields never flashed back as old input.
var defaultDontFlash = []string{"password", "password-confirmation", "password_confirmation", "current-password"}

// statusCoder is implemented by errors that know their HTTP status.
type statusCoder interface {
	StatusCode() int
}

// ErrorPageFunc renders the HTML body of an error page.
type ErrorPageFunc func(code int, message string) string

// ExceptionHandler decides what the client sees for any error a handler
// or middleware returns. It is the only place that does.
type ExceptionHandler struct {
	logger    *slog.Logger
	page      ErrorPageFunc
	dontFlash []string
	debug     bool
}

// ExceptionOption configures the ExceptionHandler.
type ExceptionOption func(*ExceptionHandler)

// WithDebug exposes error messages and the error chain in 500 responses.
func WithDebug(debug bool) ExceptionOption {
	return func(h *ExceptionHandler) {
		h.debug = debug
	}
}

func WithErrorPage(fn ErrorPageFunc) ExceptionOption {
	return func(h *ExceptionHandler) {
		if fn != nil {
			h.page = fn
		}
	}
}

// WithDontFlash adds input keys that are never flashed back as old input.
func WithDontFlash(keys ...string) ExceptionOption {
	return func(h *ExceptionHandler) {
		h.dontFlash = append(h.dontFlash, keys...)
	}
}

func WithExceptionLogger(l *slog.Logger) ExceptionOption {
	return func(h *ExceptionHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewExceptionHandler(opts ...ExceptionOption) *ExceptionHandler {
	h := &ExceptionHandler{
		logger:    logger.NewNope(),
		page:      DefaultErrorPage,
		dontFlash: slices.Clone(defaultDontFlash),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle turns err into a response negotiated against the request's
// Accept header.
func (h *ExceptionHandler) Handle(r *Request, err error) *Response {
	if ve, ok := validation.AsValidationError(err); ok {
		return h.validation(r, ve)
	}

	if he, ok := AsHTTPError(err); ok {
		if he.Code >= http.StatusInternalServerError {
			h.log(r, err)
		}
		resp := h.render(r, he.Code, he.Error(), he.Detail)
		for k, vals := range he.Header {
			for _, v := range vals {
				resp.Header.Add(k, v)
			}
		}
		return resp
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() >= http.StatusBadRequest {
		code := sc.StatusCode()
		if code >= http.StatusInternalServerError {
			h.log(r, err)
		}
		return h.render(r, code, http.StatusText(code), "")
	}

	h.log(r, err)
	message := http.StatusText(http.StatusInternalServerError)
	detail := ""
	if h.debug {
		message = err.Error()
		detail = chain(err)
	}
	return h.render(r, http.StatusInternalServerError, message, detail)
}

// validation redirects HTML clients back with errors and old input
// flashed. Every other client gets the JSON 422, whatever it accepts.
func (h *ExceptionHandler) validation(r *Request, ve *validation.ValidationError) *Response {
	if r.PrefersHTML() {
		if sess := r.Session(); sess != nil {
			sess.Flash(FlashErrorsKey, ve.Errors)
			sess.Flash(FlashOldKey, r.oldInput(h.dontFlash))
		}
		location := r.Referer()
		if location == "" {
			location = "/"
		}
		return Redirect(location)
	}

	resp, err := JSON(http.StatusUnprocessableEntity, map[string]any{
		"message": validation.Message,
		"errors":  ve.Errors,
	})
	if err != nil {
		return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	return resp
}

func (h *ExceptionHandler) render(r *Request, code int, message, detail string) *Response {
	switch {
	case r.PrefersHTML():
		return HTML(code, h.page(code, message))
	case r.AcceptsJSON():
		body := map[string]any{"error": message, "status": code}
		if detail != "" {
			body["detail"] = detail
		}
		if resp, err := JSON(code, body); err == nil {
			return resp
		}
		return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	default:
		return Text(http.StatusNotAcceptable, "Not acceptable")
	}
}

func (h *ExceptionHandler) log(r *Request, err error) {
	h.logger.ErrorContext(r.Context(), err.Error(),
		slog.Any("error", err),
		slog.String("type", fmt.Sprintf("%T", err)),
		r.Snapshot(),
	)
}

// oldInput is the input worth showing again in a form: no files and no
// secrets.
func (r *Request) oldInput(dontFlash []string) map[string]any {
	old := r.Attributes()
	for _, k := range dontFlash {
		delete(old, k)
	}
	return old
}

// chain lists the messages of every wrapped error, outermost first.
func chain(err error) string {
	var lines []string
	for err != nil {
		lines = append(lines, err.Error())
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				lines = append(lines, "  "+e.Error())
			}
			break
		}
		err = errors.Unwrap(err)
	}
	return strings.Join(lines, "\n")
}

// DefaultErrorPage is a minimal HTML error page.
func DefaultErrorPage(code int, message string) string {
	title := fmt.Sprintf("%d %s", code, http.StatusText(code))
	return "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>" + html.EscapeString(title) +
		"</title></head><body><h1>" + html.EscapeString(title) + "</h1><p>" +
		html.EscapeString(message) + "</p></body></html>"
}
