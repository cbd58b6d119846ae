package internal_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/internal"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

func formRequest(t *testing.T, target string, form url.Values) *http.Request {
	t.Helper()
	hr := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return hr
}

type part struct {
	field, filename string
	content         []byte
}

func multipartRequest(t *testing.T, values map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	hr := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	hr.Header.Set("Content-Type", w.FormDataContentType())
	return hr
}

func TestNewRequest_Input(t *testing.T) {
	t.Parallel()

	t.Run("body wins over query", func(t *testing.T) {
		t.Parallel()
		form := url.Values{"quantity": {"3"}, "tags[]": {"a", "b"}}
		r, err := internal.NewRequest(formRequest(t, "/cart?quantity=1&page=2", form))
		require.NoError(t, err)

		assert.Equal(t, "POST", r.Method())
		assert.Equal(t, "/cart", r.Path())
		assert.Equal(t, "3", r.Input("quantity"))
		assert.Equal(t, "2", r.String("page"))
		assert.Equal(t, []any{"a", "b"}, r.Input("tags"))
		assert.True(t, r.Has("page"))
		assert.False(t, r.Has("missing"))
		assert.Equal(t, 3, internal.InputDefault(r, "quantity", 1))
		assert.Equal(t, 1, internal.InputDefault(r, "missing", 1))
	})

	t.Run("json object body", func(t *testing.T) {
		t.Parallel()
		hr := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"product_id": 4, "quantity": 0}`))
		hr.Header.Set("Content-Type", "application/json; charset=utf-8")
		r, err := internal.NewRequest(hr)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, r.Input("product_id"), 0)
		assert.InDelta(t, 0.0, r.Input("quantity"), 0)
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		t.Parallel()
		hr := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"quantity":`))
		hr.Header.Set("Content-Type", "application/json")
		r, err := internal.NewRequest(hr)
		require.Error(t, err)
		require.NotNil(t, r)
		he, ok := internal.AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		assert.ErrorIs(t, err, internal.ErrMalformedBody)
	})

	t.Run("body over the limit", func(t *testing.T) {
		t.Parallel()
		hr := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
		hr.Header.Set("Content-Type", "application/json")
		_, err := internal.NewRequest(hr, internal.WithMaxBodyBytes(16))
		he, ok := internal.AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, he.Code)
		assert.ErrorIs(t, err, internal.ErrBodyTooLarge)
	})

	t.Run("only and except", func(t *testing.T) {
		t.Parallel()
		form := url.Values{"email": {"a@b.c"}, "password": {"secret"}, "name": {"Ann"}}
		r, err := internal.NewRequest(formRequest(t, "/register", form))
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"email": "a@b.c"}, r.Only("email", "missing"))
		assert.Equal(t, map[string]any{"email": "a@b.c", "name": "Ann"}, r.Except("password"))
	})

	t.Run("head is reported as get", func(t *testing.T) {
		t.Parallel()
		r, err := internal.NewRequest(httptest.NewRequest(http.MethodHead, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, r.Method())
		assert.True(t, r.IsHead())
	})

	t.Run("values live on the context", func(t *testing.T) {
		t.Parallel()
		type key struct{}
		r := newRequest(t, "")
		r.SetValue(key{}, "v")
		assert.Equal(t, "v", r.Value(key{}))
		assert.Equal(t, "v", r.Context().Value(key{}))
		assert.Equal(t, "v", internal.ContextValue[string](r, key{}))
		assert.Empty(t, internal.ContextValue[string](r, "other"))
	})
}

func TestNewRequest_Files(t *testing.T) {
	t.Parallel()

	t.Run("single and multiple uploads share one shape", func(t *testing.T) {
		t.Parallel()
		hr := multipartRequest(t, map[string]string{"name": "Lamp"},
			part{"photo", "a.png", []byte("one")},
			part{"gallery[]", "b.png", []byte("two")},
			part{"gallery[]", "c.png", []byte("three")},
		)
		r, err := internal.NewRequest(hr)
		require.NoError(t, err)

		assert.Equal(t, "Lamp", r.Input("name"))
		assert.Len(t, r.Files("photo"), 1)
		assert.Len(t, r.Files("gallery"), 2)
		assert.True(t, r.HasFile("photo"))

		f, ok := r.File("photo")
		require.True(t, ok)
		assert.Equal(t, "a.png", f.Filename)
		assert.EqualValues(t, 3, f.Size())

		all := r.All()
		assert.Same(t, f, all["photo"])
		assert.Len(t, all["gallery"], 2)
	})

	t.Run("empty file input is the empty sentinel", func(t *testing.T) {
		t.Parallel()
		r, err := internal.NewRequest(multipartRequest(t, nil, part{"photo", "empty.png", nil}))
		require.NoError(t, err)

		f, ok := r.File("photo")
		require.True(t, ok)
		assert.Same(t, internal.EmptyFile, f)
		assert.True(t, f.IsEmpty())
		assert.False(t, r.HasFile("photo"))
		assert.ErrorIs(t, f.MoveTo(filepath.Join(t.TempDir(), "x")), internal.ErrUploadFailed)
	})

	t.Run("move once", func(t *testing.T) {
		t.Parallel()
		r, err := internal.NewRequest(multipartRequest(t, nil, part{"photo", "a.txt", []byte("hello")}))
		require.NoError(t, err)
		f, _ := r.File("photo")

		dst := filepath.Join(t.TempDir(), "a.txt")
		require.NoError(t, f.MoveTo(dst))
		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.True(t, f.IsMoved())

		assert.ErrorIs(t, f.MoveTo(dst+".2"), internal.ErrFileAlreadyMoved)
	})

	t.Run("missing target directory", func(t *testing.T) {
		t.Parallel()
		r, err := internal.NewRequest(multipartRequest(t, nil, part{"photo", "a.txt", []byte("hello")}))
		require.NoError(t, err)
		f, _ := r.File("photo")

		err = f.MoveTo(filepath.Join(t.TempDir(), "missing", "a.txt"))
		assert.ErrorIs(t, err, internal.ErrTargetNotWritable)
		assert.False(t, f.IsMoved())
	})

	t.Run("store in a backend", func(t *testing.T) {
		t.Parallel()
		png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
		r, err := internal.NewRequest(multipartRequest(t, nil, part{"photo", "a.png", png}))
		require.NoError(t, err)
		f, _ := r.File("photo")

		local, err := storage.NewLocal(storage.LocalConfig{Root: t.TempDir(), PublicURL: "/uploads"})
		require.NoError(t, err)

		info, err := f.Store(context.Background(), local, storage.WithPrefix("products"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(info.Key, "products/"))
		assert.Equal(t, "image/png", info.ContentType)

		rc, err := local.Get(context.Background(), info.Key)
		require.NoError(t, err)
		defer rc.Close()
		stored, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, png, stored)

		_, err = f.Store(context.Background(), local)
		assert.ErrorIs(t, err, internal.ErrFileAlreadyMoved)
	})
}
