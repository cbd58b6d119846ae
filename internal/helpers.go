package internal

import (
	"strconv"
	"strings"
)

// Scalar is the set of types route parameters and inputs convert to.
type Scalar interface {
	string | int | int64 | float64 | bool
}

// ContextValue returns a request-scoped value stored with SetValue.
func ContextValue[T any](r *Request, key any) T {
	if v, ok := r.Value(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Param converts a route parameter. ok is false when it cannot be parsed.
//
//	id, ok := storefront.Param[int64](r, "id")
//	if !ok {
//	    return nil, storefront.ErrNotFound("Product not found")
//	}
func Param[T Scalar](r *Request, name string) (T, bool) {
	return convertParam[T](r.Param(name))
}

// InputDefault converts a string input, falling back to defaultValue
// when the input is missing or cannot be parsed.
func InputDefault[T Scalar](r *Request, key string, defaultValue T) T {
	raw := strings.TrimSpace(r.String(key))
	if raw == "" {
		return defaultValue
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

// convertParam converts a raw string to the target type T.
// Returns the converted value and true on success, or the zero value and false on failure.
func convertParam[T Scalar](raw string) (T, bool) {
	var zero T
	var out any
	switch any(zero).(type) {
	case string:
		out = raw
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, false
		}
		out = v
	case int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, false
		}
		out = v
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zero, false
		}
		out = v
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return zero, false
		}
		out = v
	}
	return out.(T), true
}
