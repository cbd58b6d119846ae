// Package handlers declares the storefront's routes.
package handlers

import (
	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/example/models"
	"github.com/dmitrymomot/storefront/example/views"
	"github.com/dmitrymomot/storefront/pkg/auth"
	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

type (
	// Users authenticates storefront customers and admins.
	Users = auth.Manager[*models.User]

	UserRepository    = model.Repository[models.User, *models.User]
	ProductRepository = model.Repository[models.Product, *models.Product]
	OrderRepository   = model.Repository[models.Order, *models.Order]
)

// respond renders page for browsers and JSON for everyone else.
func respond(r *storefront.Request, status int, page, title string, values map[string]any) (*storefront.Response, error) {
	if r.PrefersHTML() {
		return views.Render(r, status, page, title, values)
	}
	return storefront.JSON(status, values)
}

// validate checks the request input and returns the declared fields.
func validate(r *storefront.Request, db *query.DB, fields ...validation.Option) (map[string]any, error) {
	v := validation.New(r.All(), append(fields, validation.WithLookup(db))...)
	if err := v.Validate(r.Context()); err != nil {
		return nil, err
	}
	return v.Validated(), nil
}

// currentUser returns the authenticated user. Routes using it sit behind
// RequireAuth, so a missing user is a 401.
func currentUser(r *storefront.Request, users *Users) (*models.User, error) {
	u, ok, err := users.Guard(r).User(r.Context())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storefront.ErrUnauthorized("Unauthorized")
	}
	return u, nil
}

// RoleOf resolves the role name of the authenticated user for RequireRole.
func RoleOf(db *query.DB, users *Users) func(r *storefront.Request) (string, error) {
	return func(r *storefront.Request) (string, error) {
		u, err := currentUser(r, users)
		if err != nil {
			return "", err
		}
		role, ok, err := u.Role(r.Context(), db)
		if err != nil || !ok {
			return "", err
		}
		return role.Name, nil
	}
}

// int64Input reads a numeric input sent as a form string or a JSON number.
func int64Input(r *storefront.Request, key string) int64 {
	n, _ := toInt64(r.Input(key))
	return n
}

func toInt64(v any) (int64, bool) {
	return model.Row{"v": v}.Int64("v")
}
