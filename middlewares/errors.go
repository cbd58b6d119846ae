package middlewares

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// PanicError is a recovered panic together with the request it broke.
// The ExceptionHandler logs it, stack included, and answers 500.
type PanicError struct {
	Value  any
	Method string
	Path   string
	// Stack is nil when capture is disabled.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panic raised with an error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func (e *PanicError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("panic", fmt.Sprint(e.Value)),
		slog.String("route", e.Method+" "+e.Path),
	}
	if len(e.Stack) > 0 {
		attrs = append(attrs, slog.String("stack", string(e.Stack)))
	}
	return slog.GroupValue(attrs...)
}

// TimeoutError reports a request that ran past the Timeout middleware's
// deadline. It renders as 503.
type TimeoutError struct {
	Path     string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

func (e *TimeoutError) StatusCode() int {
	return http.StatusServiceUnavailable
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) hold.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

func IsPanicError(err error) bool {
	_, ok := as[*PanicError](err)
	return ok
}

func IsTimeoutError(err error) bool {
	_, ok := as[*TimeoutError](err)
	return ok
}

func AsPanicError(err error) (*PanicError, bool) {
	return as[*PanicError](err)
}

func AsTimeoutError(err error) (*TimeoutError, bool) {
	return as[*TimeoutError](err)
}

func as[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}
