package internal_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

var errInvalid = validation.NewValidationError(map[string]string{"quantity": "This field must be greater than 1"})

func requestWithSession(t *testing.T, accept, referer string, form url.Values) (*internal.Request, *session.Session) {
	t.Helper()
	hr := formRequest(t, "/cart", form)
	hr.Header.Set("Accept", accept)
	if referer != "" {
		hr.Header.Set("Referer", referer)
	}
	sess := session.New("id", "token", time.Now().Add(time.Hour))
	r, err := internal.NewRequest(hr, internal.WithRequestSession(sess))
	require.NoError(t, err)
	return r, sess
}

func TestExceptionHandler_Validation(t *testing.T) {
	t.Parallel()

	form := url.Values{"quantity": {"0"}, "password": {"secret"}, "note": {"gift"}}

	t.Run("html redirects back with flashed errors and old input", func(t *testing.T) {
		t.Parallel()
		r, sess := requestWithSession(t, "text/html,*/*;q=0.8", "/products/4", form)

		resp := internal.NewExceptionHandler().Handle(r, errInvalid)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "/products/4", resp.Header.Get("Location"))

		errs, ok := sess.Get("errors")
		require.True(t, ok)
		assert.Equal(t, errInvalid.Errors, errs)

		old, ok := sess.Get("old")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"quantity": "0", "note": "gift"}, old)
	})

	t.Run("html without referer goes home", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "text/html", "", form)
		resp := internal.NewExceptionHandler().Handle(r, errInvalid)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("json gets 422", func(t *testing.T) {
		t.Parallel()
		r, sess := requestWithSession(t, "application/json", "/products/4", form)

		resp := internal.NewExceptionHandler().Handle(r, fmt.Errorf("add to cart: %w", errInvalid))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
		assert.JSONEq(t,
			`{"message":"The given data was invalid.","errors":{"quantity":"This field must be greater than 1"}}`,
			string(resp.Body))
		assert.False(t, sess.Has("errors"))
	})

	t.Run("json that is not preferred gets 422", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "application/xml, application/json;q=0.5", "", form)
		resp := internal.NewExceptionHandler().Handle(r, errInvalid)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	})

	for _, accept := range []string{"application/xml", "text/plain", ""} {
		t.Run("non-html client gets 422 for accept "+accept, func(t *testing.T) {
			t.Parallel()
			r, sess := requestWithSession(t, accept, "/products/4", form)
			resp := internal.NewExceptionHandler().Handle(r, errInvalid)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
			assert.JSONEq(t,
				`{"message":"The given data was invalid.","errors":{"quantity":"This field must be greater than 1"}}`,
				string(resp.Body))
			assert.False(t, sess.Has("errors"))
		})
	}

	t.Run("validation failures are not logged", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		h := internal.NewExceptionHandler(internal.WithExceptionLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
		r, _ := requestWithSession(t, "application/json", "", form)
		h.Handle(r, errInvalid)
		assert.Empty(t, buf.String())
	})
}

func TestExceptionHandler_HTTPError(t *testing.T) {
	t.Parallel()

	t.Run("json body", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "application/json", "", nil)
		resp := internal.NewExceptionHandler().Handle(r, internal.ErrForbidden("Forbidden: admins only"))
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.JSONEq(t, `{"error":"Forbidden: admins only","status":403}`, string(resp.Body))
	})

	t.Run("custom error page", func(t *testing.T) {
		t.Parallel()
		page := func(code int, msg string) string { return fmt.Sprintf("<p>%d|%s</p>", code, msg) }
		r, _ := requestWithSession(t, "text/html", "", nil)
		resp := internal.NewExceptionHandler(internal.WithErrorPage(page)).Handle(r, internal.ErrNotFound("Product not found"))
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "<p>404|Product not found</p>", string(resp.Body))
	})

	t.Run("allow header is kept", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "application/json", "", nil)
		resp := internal.NewExceptionHandler().Handle(r, internal.ErrMethodNotAllowed([]string{"GET", "POST"}))
		assert.Equal(t, "GET, POST", resp.Header.Get("Allow"))
	})

	t.Run("unacceptable", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "image/png", "", nil)
		resp := internal.NewExceptionHandler().Handle(r, internal.ErrNotFound("gone"))
		assert.Equal(t, http.StatusNotAcceptable, resp.Status)
	})
}

func TestExceptionHandler_Unclassified(t *testing.T) {
	t.Parallel()

	queryErr := &query.QueryError{SQL: "SELECT * FROM products WHERE id = ?", Err: errors.New("no such table: products")}

	t.Run("logged and hidden", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		h := internal.NewExceptionHandler(internal.WithExceptionLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
		r, _ := requestWithSession(t, "application/json", "", nil)

		resp := h.Handle(r, queryErr)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.JSONEq(t, `{"error":"Internal Server Error","status":500}`, string(resp.Body))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "ERROR", entry["level"])
		assert.Contains(t, entry["msg"], "SELECT * FROM products")
		assert.Equal(t, "*query.QueryError", entry["type"])
		req, ok := entry["request"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "/cart", req["path"])
	})

	t.Run("debug exposes the chain", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "application/json", "", nil)
		resp := internal.NewExceptionHandler(internal.WithDebug(true)).Handle(r, fmt.Errorf("load product: %w", queryErr))

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body, &body))
		assert.Contains(t, body["error"], "load product")
		assert.Contains(t, body["detail"], "no such table: products")
	})

	t.Run("html page", func(t *testing.T) {
		t.Parallel()
		r, _ := requestWithSession(t, "text/html", "", nil)
		resp := internal.NewExceptionHandler().Handle(r, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Contains(t, string(resp.Body), "Internal Server Error")
		assert.NotContains(t, string(resp.Body), "boom")
	})

	t.Run("html server errors from httptest", func(t *testing.T) {
		t.Parallel()
		app := internal.New(internal.WithHandlers(routesFunc(func(r internal.Router) {
			r.GET("/boom", func(*internal.Request) (*internal.Response, error) {
				return nil, internal.ErrServiceUnavailable("Try again later")
			})
		})))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		req.Header.Set("Accept", "text/html")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "Try again later")
	})
}
