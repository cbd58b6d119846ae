package internal_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/cache"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/validation"
)

func newSessionStore(t *testing.T) session.Store {
	t.Helper()
	c := cache.NewMemory[session.Data](cache.WithSweepInterval(0))
	t.Cleanup(func() { _ = c.Close() })
	return session.NewCacheStore(c)
}

// client replays the session cookie like a browser.
type client struct {
	t      *testing.T
	app    http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, target string, body url.Values, header ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != nil {
		req = formRequest(c.t, target, body)
		req.Method = method
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.app.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" {
			c.cookie = ck
		}
	}
	return rec
}

func flashRoutes(r internal.Router) {
	r.POST("/flash", func(r *internal.Request) (*internal.Response, error) {
		r.Flash("status", "saved")
		v, _ := r.Session().Get("status")
		return internal.Text(http.StatusOK, v.(string)), nil
	})
	r.GET("/read", func(r *internal.Request) (*internal.Response, error) {
		first, _ := r.Session().Get("status")
		second, _ := r.Session().Get("status")
		if first != second {
			return nil, errors.New("flash changed within one request")
		}
		if first == nil {
			return internal.Text(http.StatusOK, "none"), nil
		}
		return internal.Text(http.StatusOK, first.(string)), nil
	})
	r.POST("/cart", func(r *internal.Request) (*internal.Response, error) {
		return nil, validation.NewValidationError(map[string]string{"quantity": "This field must be greater than 1"})
	})
	r.GET("/form", func(r *internal.Request) (*internal.Response, error) {
		old, _ := r.Old("quantity").(string)
		return internal.Text(http.StatusOK, r.Errors()["quantity"]+"|"+old), nil
	})
}

func TestApp_FlashLifetime(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithSession(newSessionStore(t)),
		internal.WithHandlers(routesFunc(flashRoutes)),
	)
	c := &client{t: t, app: app}

	rec := c.do(http.MethodPost, "/flash", url.Values{})
	assert.Equal(t, "saved", rec.Body.String(), "request N")
	require.NotNil(t, c.cookie)

	assert.Equal(t, "saved", c.do(http.MethodGet, "/read", nil).Body.String(), "request N+1")
	assert.Equal(t, "none", c.do(http.MethodGet, "/read", nil).Body.String(), "request N+2")
}

func TestApp_ValidationRoundTrip(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithSession(newSessionStore(t)),
		internal.WithHandlers(routesFunc(flashRoutes)),
	)
	c := &client{t: t, app: app}

	rec := c.do(http.MethodPost, "/cart", url.Values{"quantity": {"0"}},
		"Accept", "text/html", "Referer", "/form")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/form", rec.Header().Get("Location"))

	rec = c.do(http.MethodGet, "/form", nil, "Accept", "text/html")
	assert.Equal(t, "This field must be greater than 1|0", rec.Body.String())

	rec = c.do(http.MethodGet, "/form", nil, "Accept", "text/html")
	assert.Equal(t, "|", rec.Body.String())
}

func TestApp_SessionCookie(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithSession(newSessionStore(t)),
		internal.WithHandlers(routesFunc(flashRoutes)),
	)
	c := &client{t: t, app: app}

	rec := c.do(http.MethodGet, "/read", nil)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "session", ck.Name)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Zero(t, ck.MaxAge)

	// an existing session is not re-sent
	rec = c.do(http.MethodGet, "/read", nil)
	assert.Empty(t, rec.Result().Cookies())

	// an unknown token starts over
	c.cookie = &http.Cookie{Name: "session", Value: "forged"}
	rec = c.do(http.MethodGet, "/read", nil)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "forged", rec.Result().Cookies()[0].Value)
}

func TestApp_SessionRegenerate(t *testing.T) {
	t.Parallel()

	store := newSessionStore(t)
	app := internal.New(
		internal.WithSession(store, internal.WithSessionLifetime(time.Hour), internal.WithSessionSecure(true)),
		internal.WithHandlers(routesFunc(func(r internal.Router) {
			r.POST("/login", func(r *internal.Request) (*internal.Response, error) {
				if err := r.Session().Regenerate(); err != nil {
					return nil, err
				}
				return internal.NoContent(), nil
			})
			r.GET("/", text("home"))
		})),
	)
	c := &client{t: t, app: app}

	c.do(http.MethodGet, "/", nil)
	before := c.cookie.Value
	rec := c.do(http.MethodPost, "/login", url.Values{})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEqual(t, before, c.cookie.Value)
	assert.True(t, c.cookie.Secure)
	assert.Equal(t, 3600, c.cookie.MaxAge)

	_, err := store.Get(context.Background(), before)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestApp_HealthAndStatic(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{"public/app.css": {Data: []byte("body{}")}}
	app := internal.New(
		internal.WithStaticFiles("/static/", assets, "public"),
		internal.WithHealthChecks(
			internal.WithReadinessCheck("db", func(context.Context) error { return errors.New("down") }),
		),
		internal.WithHandlers(routesFunc(func(r internal.Router) {
			r.GET("/", text("home"))
		})),
	)

	rec := serve(t, app, http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, app, http.MethodGet, "/health/ready", "Accept", "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "down")

	rec = serve(t, app, http.MethodGet, "/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(t, app, http.MethodGet, "/static/", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, app, http.MethodGet, "/")
	assert.Equal(t, "home", rec.Body.String())
}

func TestApp_ResponseHeadersSurviveErrors(t *testing.T) {
	t.Parallel()

	tag := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(r *internal.Request) (*internal.Response, error) {
			r.SetResponseHeader("X-Trace", "abc")
			return next(r)
		}
	}
	app := internal.New(internal.WithMiddleware(tag))

	rec := serve(t, app, http.MethodGet, "/missing", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get("X-Trace"))
}

func TestApp_BodyLimit(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithBodyLimit(8),
		internal.WithHandlers(routesFunc(func(r internal.Router) {
			r.POST("/echo", func(r *internal.Request) (*internal.Response, error) {
				return internal.Text(http.StatusOK, r.String("v")), nil
			})
		})),
	)

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("v="+strings.Repeat("x", 32)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestApp_RunShutsDownWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listening := make(chan net.Addr, 1)
	hookCalled := make(chan struct{})
	done := make(chan error, 1)

	app := internal.New(internal.WithHandlers(routesFunc(func(r internal.Router) {
		r.GET("/", text("home"))
	})))
	go func() {
		done <- app.Run(
			internal.Address("127.0.0.1:0"),
			internal.WithContext(ctx),
			internal.ShutdownTimeout(time.Second),
			internal.ServerTimeouts(time.Second, time.Second, time.Second),
			internal.OnListen(func(addr net.Addr) { listening <- addr }),
			internal.ShutdownHook(func(context.Context) error {
				close(hookCalled)
				return nil
			}),
		)
	}()

	var addr net.Addr
	select {
	case addr = <-listening:
	case err := <-done:
		t.Fatalf("server stopped early: %v", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "home", string(body))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	_, open := <-hookCalled
	assert.False(t, open)
}
