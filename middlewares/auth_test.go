package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/auth"
)

type checker struct {
	ok  bool
	err error
}

func (c checker) Check(context.Context, auth.Scope) (bool, error) { return c.ok, c.err }

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	t.Run("json clients get 401", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
			r.POST("/cart", ok, middlewares.RequireAuth(checker{}, ""))
		})))

		rec := serve(app, http.MethodPost, "/cart", "application/json")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("browsers are sent to login", func(t *testing.T) {
		t.Parallel()
		resp, err := middlewares.RequireAuth(checker{}, "/signin")(ok)(newRequest(t, http.MethodGet, "text/html", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "/signin", resp.Header.Get("Location"))
	})

	t.Run("default login path", func(t *testing.T) {
		t.Parallel()
		resp, err := middlewares.RequireAuth(checker{}, "")(ok)(newRequest(t, http.MethodGet, "text/html", nil))
		require.NoError(t, err)
		assert.Equal(t, middlewares.DefaultLoginPath, resp.Header.Get("Location"))
	})

	t.Run("authenticated passes", func(t *testing.T) {
		t.Parallel()
		resp, err := middlewares.RequireAuth(checker{ok: true}, "")(ok)(newRequest(t, http.MethodGet, "application/json", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
	})

	t.Run("checker failure is returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("session store down")
		_, err := middlewares.RequireAuth(checker{err: boom}, "")(ok)(newRequest(t, http.MethodGet, "", nil))
		assert.ErrorIs(t, err, boom)
	})
}

func TestGuest(t *testing.T) {
	t.Parallel()

	t.Run("authenticated users are redirected", func(t *testing.T) {
		t.Parallel()
		resp, err := middlewares.Guest(checker{ok: true}, "/account")(ok)(newRequest(t, http.MethodGet, "text/html", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "/account", resp.Header.Get("Location"))
	})

	t.Run("guests pass", func(t *testing.T) {
		t.Parallel()
		resp, err := middlewares.Guest(checker{}, "")(ok)(newRequest(t, http.MethodGet, "text/html", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	roleOf := func(role string) middlewares.RoleFunc {
		return func(*internal.Request) (string, error) { return role, nil }
	}

	t.Run("matching role passes", func(t *testing.T) {
		t.Parallel()
		resp, err := middlewares.RequireRole(roleOf("admin"), "admin", "editor")(ok)(newRequest(t, http.MethodGet, "", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
	})

	t.Run("other roles are forbidden through the kernel", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
			r.POST("/product", ok,
				middlewares.RequireAuth(checker{ok: true}, ""),
				middlewares.RequireRole(roleOf("customer"), "admin"),
			)
		})))

		rec := serve(app, http.MethodPost, "/product", "application/json")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t,
			`{"error":"Forbidden: you are not authorized to access this page","status":403}`,
			rec.Body.String())
	})

	t.Run("role lookup failure is returned", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("user gone")
		failing := func(*internal.Request) (string, error) { return "", boom }
		_, err := middlewares.RequireRole(failing, "admin")(ok)(newRequest(t, http.MethodGet, "", nil))
		assert.ErrorIs(t, err, boom)
	})
}
