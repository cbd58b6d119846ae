package middlewares_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates an id and echoes it on errors", func(t *testing.T) {
		t.Parallel()

		var seen string
		app := internal.New(
			internal.WithMiddleware(middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "gen-1" }))),
			internal.WithHandlers(routes(func(r internal.Router) {
				r.GET("/", func(r *internal.Request) (*internal.Response, error) {
					seen = middlewares.GetRequestID(r)
					return internal.NoContent(), nil
				})
			})),
		)

		rec := serve(app, http.MethodGet, "/", "")
		assert.Equal(t, "gen-1", seen)
		assert.Equal(t, "gen-1", rec.Header().Get("X-Request-ID"))

		rec = serve(app, http.MethodGet, "/missing", "application/json")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "gen-1", rec.Header().Get("X-Request-ID"))
	})

	t.Run("reuses an incoming id", func(t *testing.T) {
		t.Parallel()

		r := newRequest(t, http.MethodGet, "", nil)
		r.HTTP().Header.Set("X-Correlation-ID", "upstream")

		var seen string
		_, err := middlewares.RequestID()(func(r *internal.Request) (*internal.Response, error) {
			seen = middlewares.GetRequestID(r)
			return internal.NoContent(), nil
		})(r)
		require.NoError(t, err)
		assert.Equal(t, "upstream", seen)
	})

	t.Run("ignores oversized ids", func(t *testing.T) {
		t.Parallel()

		r := newRequest(t, http.MethodGet, "", nil)
		r.HTTP().Header.Set("X-Request-ID", strings.Repeat("x", 500))

		_, err := middlewares.RequestID()(ok)(r)
		require.NoError(t, err)
		assert.Len(t, middlewares.GetRequestID(r), 36)
	})

	t.Run("extractor adds request_id to logs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "info", Format: "json"},
			logger.WithOutput(&buf),
			logger.WithExtractors(middlewares.RequestIDExtractor()),
		)

		r := newRequest(t, http.MethodGet, "", nil)
		_, err := middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "req-7" }))(
			func(r *internal.Request) (*internal.Response, error) {
				log.InfoContext(r.Context(), "handled")
				return internal.NoContent(), nil
			})(r)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"request_id":"req-7"`)

		_, found := middlewares.RequestIDExtractor()(context.Background())
		assert.False(t, found)
	})
	t.Run("rejects ids unsafe to log", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"abc\nlevel=ERROR", "a b", "<script>"} {
			r := newRequest(t, http.MethodGet, "", nil)
			r.HTTP().Header.Set("X-Request-ID", bad)
			_, err := middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "fresh" }))(ok)(r)
			require.NoError(t, err)
			assert.Equal(t, "fresh", middlewares.GetRequestID(r), bad)
		}
	})
}
