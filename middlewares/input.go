package middlewares

import (
	"slices"
	"strings"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/sanitizer"
)

// DefaultTrimExcept are inputs left exactly as typed.
var DefaultTrimExcept = []string{"password", "password-confirmation", "current-password"}

// TrimInput trims surrounding whitespace from every string input except
// the listed keys. With no keys, DefaultTrimExcept applies.
func TrimInput(except ...string) internal.Middleware {
	if len(except) == 0 {
		except = DefaultTrimExcept
	}
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			for key, v := range r.Attributes() {
				if slices.Contains(except, key) {
					continue
				}
				if s, ok := v.(string); ok {
					r.Set(key, strings.TrimSpace(s))
				}
			}
			return next(r)
		}
	}
}

// EmptyStringToNull turns empty string inputs into nil so nullable rules
// and optional columns see a missing value.
func EmptyStringToNull() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			for key, v := range r.Attributes() {
				if s, ok := v.(string); ok && s == "" {
					r.Set(key, nil)
				}
			}
			return next(r)
		}
	}
}

// SanitizeInput strips markup from the listed inputs. With no keys it
// cleans every input except DefaultTrimExcept.
func SanitizeInput(fields ...string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			attrs := r.Attributes()
			if len(fields) == 0 {
				sanitizer.Values(attrs, DefaultTrimExcept...)
			} else {
				selected := make(map[string]any, len(fields))
				for _, f := range fields {
					if v, ok := attrs[f]; ok {
						selected[f] = v
					}
				}
				sanitizer.Values(selected)
				attrs = selected
			}
			for k, v := range attrs {
				r.Set(k, v)
			}
			return next(r)
		}
	}
}
