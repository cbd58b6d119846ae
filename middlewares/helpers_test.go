package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/session"
)

func newRequest(t *testing.T, method, accept string, form url.Values) *internal.Request {
	t.Helper()
	var hr *http.Request
	if form != nil {
		hr = httptest.NewRequest(method, "/", strings.NewReader(form.Encode()))
		hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		hr = httptest.NewRequest(method, "/", nil)
	}
	if accept != "" {
		hr.Header.Set("Accept", accept)
	}
	sess := session.New("id", "token", time.Now().Add(time.Hour))
	r, err := internal.NewRequest(hr, internal.WithRequestSession(sess))
	require.NoError(t, err)
	return r
}

func ok(*internal.Request) (*internal.Response, error) {
	return internal.Text(http.StatusOK, "ok"), nil
}

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

func serve(app http.Handler, method, target, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
