package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

type requestIDKey struct{}

// RequestIDHeader is the response header carrying the id.
const RequestIDHeader = "X-Request-ID"

// DefaultRequestIDHeaders are checked in order for an id set by a proxy.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

const maxRequestIDLength = 128

type requestIDConfig struct {
	generate       func() string
	responseHeader string
	headers        []string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeaders replaces the headers trusted for an incoming id.
// With none, every request gets a fresh id.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.headers = headers
	}
}

// WithRequestIDGenerator replaces uuid.NewString.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if gen != nil {
			c.generate = gen
		}
	}
}

// WithRequestIDResponseHeader renames the echoed header; "" disables it.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.responseHeader = header
	}
}

// RequestID tags each request with an id: the first acceptable incoming
// header value, or a generated one. The id lives on the request context,
// where RequestIDExtractor finds it for every log line, and is echoed on
// the response, error pages included.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := requestIDConfig{
		generate:       uuid.NewString,
		responseHeader: RequestIDHeader,
		headers:        DefaultRequestIDHeaders,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			id := ""
			for _, h := range cfg.headers {
				if v := r.Header(h); validRequestID(v) {
					id = v
					break
				}
			}
			if id == "" {
				id = cfg.generate()
			}

			r.SetValue(requestIDKey{}, id)
			if cfg.responseHeader != "" {
				r.SetResponseHeader(cfg.responseHeader, id)
			}
			return next(r)
		}
	}
}

// validRequestID accepts ids that are safe to log and echo: short and
// made of letters, digits and - _ . : only.
func validRequestID(v string) bool {
	if v == "" || len(v) > maxRequestIDLength {
		return false
	}
	for _, c := range []byte(v) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(r *internal.Request) string {
	id, _ := r.Value(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds request_id to log records written with a
// request context.
//
//	log := logger.New(cfg.Log, logger.WithExtractors(middlewares.RequestIDExtractor()))
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
