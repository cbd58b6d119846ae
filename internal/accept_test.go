package internal_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
)

func newRequest(t *testing.T, accept string) *internal.Request {
	t.Helper()
	hr := httptest.NewRequest("GET", "/", nil)
	if accept != "" {
		hr.Header.Set("Accept", accept)
	}
	r, err := internal.NewRequest(hr)
	require.NoError(t, err)
	return r
}

func TestParseAccept(t *testing.T) {
	t.Parallel()

	t.Run("orders by quality and keeps header order on ties", func(t *testing.T) {
		t.Parallel()
		entries := internal.ParseAccept("text/html;q=0.8, application/json, text/plain;q=0.8, */*;q=0.1")
		require.Len(t, entries, 4)
		assert.Equal(t, internal.AcceptEntry{Type: "application/json", Quality: 1}, entries[0])
		assert.Equal(t, "text/html", entries[1].Type)
		assert.Equal(t, "text/plain", entries[2].Type)
		assert.Equal(t, "*/*", entries[3].Type)
	})

	t.Run("missing header accepts anything", func(t *testing.T) {
		t.Parallel()
		entries := internal.ParseAccept("")
		assert.Equal(t, []internal.AcceptEntry{{Type: "*/*", Quality: 1}}, entries)
	})

	t.Run("invalid quality falls back to one", func(t *testing.T) {
		t.Parallel()
		entries := internal.ParseAccept("text/html;q=abc")
		assert.InDelta(t, 1.0, entries[0].Quality, 0)
	})
}

func TestRequest_Negotiation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		accept      string
		prefersHTML bool
		prefersJSON bool
		acceptsJSON bool
		acceptsHTML bool
	}{
		{"browser", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", true, false, true, true},
		{"api client", "application/json", false, true, true, false},
		{"wildcard subtype", "text/*", false, false, false, true},
		{"no header", "", false, false, true, true},
		{"json ranked first", "text/html;q=0.5, application/json", false, true, true, true},
		{"refused with q=0", "application/json;q=0, text/html", true, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newRequest(t, tt.accept)
			assert.Equal(t, tt.prefersHTML, r.PrefersHTML(), "PrefersHTML")
			assert.Equal(t, tt.prefersJSON, r.PrefersJSON(), "PrefersJSON")
			assert.Equal(t, tt.acceptsJSON, r.AcceptsJSON(), "AcceptsJSON")
			assert.Equal(t, tt.acceptsHTML, r.AcceptsHTML(), "AcceptsHTML")
		})
	}
}
