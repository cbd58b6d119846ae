package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/storefront/internal"
)

// DefaultTimeout applies when Timeout is given zero.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. Database, cache and
// storage calls made with r.Context() stop at the deadline. When the
// deadline passed and the handler failed with it or returned nothing
// useful, the result is a TimeoutError.
//
// The handler runs on the request goroutine, so the Request and its
// session are never shared with a second goroutine.
func Timeout(d time.Duration) internal.Middleware {
	if d <= 0 {
		d = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			parent := r.Context()
			ctx, cancel := context.WithTimeout(parent, d)
			defer cancel()

			r.SetContext(ctx)
			resp, err := next(r)
			r.SetContext(parent)

			// a client that went away is not a timeout
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) || parent.Err() != nil {
				return resp, err
			}
			if err == nil || errors.Is(err, context.DeadlineExceeded) {
				r.Logger().WarnContext(parent, "request timeout",
					slog.Duration("timeout", d),
					slog.String("path", r.Path()),
				)
				return nil, &TimeoutError{Path: r.Path(), Duration: d}
			}
			return resp, err
		}
	}
}
