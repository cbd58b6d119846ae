package middlewares

import (
	"runtime"

	"github.com/dmitrymomot/storefront/internal"
)

// DefaultStackSize caps the captured stack trace, in bytes.
const DefaultStackSize = 4096

type recoverConfig struct {
	stackSize int
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

// WithRecoverStack sets how many bytes of stack to capture. Zero disables
// capture.
func WithRecoverStack(size int) RecoverOption {
	return func(c *recoverConfig) {
		if size >= 0 {
			c.stackSize = size
		}
	}
}

// Recover turns a panic in the rest of the chain into a PanicError. It
// does not log: the ExceptionHandler logs the error once, with the request
// snapshot, and renders the 500. Register it first so it wraps everything.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (resp *internal.Response, err error) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				var stack []byte
				if cfg.stackSize > 0 {
					stack = make([]byte, cfg.stackSize)
					stack = stack[:runtime.Stack(stack, false)]
				}
				resp, err = nil, &PanicError{
					Value:  v,
					Method: r.Method(),
					Path:   r.Path(),
					Stack:  stack,
				}
			}()
			return next(r)
		}
	}
}
