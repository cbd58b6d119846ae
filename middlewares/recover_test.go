package middlewares_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("recovers from panic and returns PanicError", func(t *testing.T) {
		t.Parallel()

		handler := middlewares.Recover()(func(*internal.Request) (*internal.Response, error) {
			panic("test panic")
		})

		resp, err := handler(newRequest(t, http.MethodGet, "", nil))
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, middlewares.IsPanicError(err))

		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		assert.Equal(t, "test panic", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.Equal(t, "panic: test panic", pe.Error())
		assert.Equal(t, "GET", pe.Method)
		assert.Equal(t, "/", pe.Path)
	})

	t.Run("passes through when no panic", func(t *testing.T) {
		t.Parallel()

		resp, err := middlewares.Recover()(ok)(newRequest(t, http.MethodGet, "", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
	})

	t.Run("stack capture can be disabled", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		handler := middlewares.Recover(middlewares.WithRecoverStack(0))(func(*internal.Request) (*internal.Response, error) {
			panic(errBoom)
		})

		_, err := handler(newRequest(t, http.MethodGet, "", nil))
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		assert.Nil(t, pe.Stack)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("logged once by the exception handler", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := internal.New(
			internal.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
			internal.WithMiddleware(middlewares.Recover()),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.POST("/cart/add", func(*internal.Request) (*internal.Response, error) { panic("nil cart") })
			})),
		)
		serve(app, http.MethodPost, "/cart/add", "application/json")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		detail, ok := entry["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "nil cart", detail["panic"])
		assert.Equal(t, "POST /cart/add", detail["route"])
		assert.NotEmpty(t, detail["stack"])
	})

	t.Run("kernel renders a 500", func(t *testing.T) {
		t.Parallel()

		app := internal.New(
			internal.WithMiddleware(middlewares.Recover()),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/", func(*internal.Request) (*internal.Response, error) { panic("boom") })
			})),
		)
		rec := serve(app, http.MethodGet, "/", "application/json")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal Server Error","status":500}`, rec.Body.String())
	})
}
