package middlewares

import (
	"context"
	"net/http"
	"slices"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/auth"
)

// DefaultLoginPath is where RequireAuth sends browsers.
const DefaultLoginPath = "/login"

// AuthChecker reports whether the request carries an authenticated user.
// *auth.Manager satisfies it.
type AuthChecker interface {
	Check(ctx context.Context, r auth.Scope) (bool, error)
}

// RequireAuth lets authenticated requests through. Browsers that prefer
// HTML are redirected to loginPath; everyone else gets
// 401 {"error":"Unauthorized"}. An empty loginPath means DefaultLoginPath.
func RequireAuth(checker AuthChecker, loginPath string) internal.Middleware {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			ok, err := checker.Check(r.Context(), r)
			if err != nil {
				return nil, err
			}
			if ok {
				return next(r)
			}
			if r.PrefersHTML() {
				return internal.Redirect(loginPath), nil
			}
			return internal.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
	}
}

// Guest keeps authenticated users away from pages such as login and
// register by redirecting them. An empty redirect means "/".
func Guest(checker AuthChecker, redirect string) internal.Middleware {
	if redirect == "" {
		redirect = "/"
	}
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			ok, err := checker.Check(r.Context(), r)
			if err != nil {
				return nil, err
			}
			if ok {
				return internal.Redirect(redirect), nil
			}
			return next(r)
		}
	}
}

// RoleFunc returns the role of the current user. It runs after
// RequireAuth, so a user is expected to be present.
type RoleFunc func(r *internal.Request) (string, error)

// RequireRole answers 403 unless the user's role is one of roles.
//
//	r.POST("/product", h.store,
//	    middlewares.RequireAuth(users, "/login"),
//	    middlewares.RequireRole(roleOf, "admin"),
//	)
func RequireRole(role RoleFunc, roles ...string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			current, err := role(r)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(roles, current) {
				return nil, internal.ErrForbidden("Forbidden: you are not authorized to access this page")
			}
			return next(r)
		}
	}
}
