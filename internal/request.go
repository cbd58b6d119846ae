package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

const (
	// DefaultMaxBodyBytes bounds how much of a request body is read.
	DefaultMaxBodyBytes int64 = 10 << 20
	// multipartMemory is how much of a multipart body stays in memory
	// before file parts spill to temporary files.
	multipartMemory int64 = 8 << 20
)

// Request is the framework view of one HTTP request: negotiated content
// types, merged input, uploaded files, route parameters and the session.
// A Request belongs to one goroutine.
type Request struct {
	ctx        context.Context
	http       *http.Request
	session    *session.Session
	logger     *slog.Logger
	attributes map[string]any
	files      map[string][]*UploadedFile
	params     map[string]string
	paramList  []string
	respHeader http.Header
	accept     []AcceptEntry
	body       []byte
	path       string
}

// RequestOption configures NewRequest.
type RequestOption func(*requestConfig)

type requestConfig struct {
	session      *session.Session
	logger       *slog.Logger
	maxBodyBytes int64
}

// WithMaxBodyBytes bounds the body size. Zero or less keeps the default.
func WithMaxBodyBytes(n int64) RequestOption {
	return func(c *requestConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithRequestSession attaches a session, mainly for tests.
func WithRequestSession(s *session.Session) RequestOption {
	return func(c *requestConfig) {
		c.session = s
	}
}

func WithRequestLogger(l *slog.Logger) RequestOption {
	return func(c *requestConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRequest reads the query string and body of hr into a Request.
// The returned Request is always usable; a non-nil error means the body
// could not be read and the input holds only the query string.
func NewRequest(hr *http.Request, opts ...RequestOption) (*Request, error) {
	cfg := &requestConfig{
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	path := hr.URL.Path
	if path == "" {
		path = "/"
	}

	r := &Request{
		ctx:        hr.Context(),
		http:       hr,
		session:    cfg.session,
		logger:     cfg.logger,
		attributes: make(map[string]any),
		files:      make(map[string][]*UploadedFile),
		params:     make(map[string]string),
		respHeader: make(http.Header),
		accept:     ParseAccept(hr.Header.Get("Accept")),
		path:       path,
	}

	mergeValues(r.attributes, hr.URL.Query())
	if err := r.readBody(cfg.maxBodyBytes); err != nil {
		return r, err
	}
	return r, nil
}

func (r *Request) readBody(limit int64) error {
	hr := r.http
	if hr.Body == nil || hr.Body == http.NoBody {
		return nil
	}
	hr.Body = http.MaxBytesReader(nil, hr.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(hr.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := hr.ParseMultipartForm(multipartMemory); err != nil {
			return bodyError(err)
		}
		mergeValues(r.attributes, url.Values(hr.MultipartForm.Value))
		for name, headers := range hr.MultipartForm.File {
			name = strings.TrimSuffix(name, "[]")
			for _, fh := range headers {
				r.files[name] = append(r.files[name], newUploadedFile(fh))
			}
		}
	case "application/x-www-form-urlencoded":
		if err := hr.ParseForm(); err != nil {
			return bodyError(err)
		}
		mergeValues(r.attributes, hr.PostForm)
	case MIMEJSON:
		body, err := io.ReadAll(hr.Body)
		if err != nil {
			return bodyError(err)
		}
		r.body = body
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return ErrBadRequest("Malformed JSON body", WithError(errors.Join(ErrMalformedBody, err)))
		}
		maps.Copy(r.attributes, payload)
	default:
		body, err := io.ReadAll(hr.Body)
		if err != nil {
			return bodyError(err)
		}
		r.body = body
	}
	return nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrRequestTooLarge("Request body too large", WithError(errors.Join(ErrBodyTooLarge, err)))
	}
	return ErrBadRequest("Malformed request body", WithError(errors.Join(ErrMalformedBody, err)))
}

// mergeValues copies form values into dst. Keys ending in "[]" become
// lists; other keys keep their last value.
func mergeValues(dst map[string]any, values url.Values) {
	for key, vals := range values {
		if name, ok := strings.CutSuffix(key, "[]"); ok {
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			dst[name] = list
			continue
		}
		if len(vals) > 0 {
			dst[key] = vals[len(vals)-1]
		}
	}
}

// Method returns the request method, reporting HEAD as GET.
func (r *Request) Method() string {
	if r.http.Method == http.MethodHead {
		return http.MethodGet
	}
	return r.http.Method
}

func (r *Request) IsHead() bool { return r.http.Method == http.MethodHead }

func (r *Request) Path() string { return r.path }

// URL returns the request target as sent by the client.
func (r *Request) URL() string { return r.http.RequestURI }

// HTTP returns the underlying net/http request.
func (r *Request) HTTP() *http.Request { return r.http }

func (r *Request) Header(name string) string { return r.http.Header.Get(name) }

// Referer returns the Referer header, or "" when absent.
func (r *Request) Referer() string { return r.http.Referer() }

func (r *Request) Cookie(name string) (*http.Cookie, error) { return r.http.Cookie(name) }

// Body returns the raw body for JSON and unknown content types.
func (r *Request) Body() []byte { return r.body }

// Accept returns the parsed Accept header, highest quality first.
func (r *Request) Accept() []AcceptEntry { return slices.Clone(r.accept) }

// PreferredType is the highest-quality media range the client sent.
func (r *Request) PreferredType() string {
	if len(r.accept) == 0 {
		return MIMEAny
	}
	return r.accept[0].Type
}

// Accepts reports whether the client accepts mediaType anywhere in its
// Accept header.
func (r *Request) Accepts(mediaType string) bool { return acceptsType(r.accept, mediaType) }

func (r *Request) AcceptsJSON() bool { return r.Accepts(MIMEJSON) }

func (r *Request) AcceptsHTML() bool { return r.Accepts(MIMEHTML) }

// PrefersHTML looks only at the first Accept entry.
func (r *Request) PrefersHTML() bool { return r.PreferredType() == MIMEHTML }

// PrefersJSON looks only at the first Accept entry.
func (r *Request) PrefersJSON() bool { return r.PreferredType() == MIMEJSON }

// Input returns an input value from the query string or body.
func (r *Request) Input(key string) any { return r.attributes[key] }

// String returns an input value as a string, or "" when missing or not a string.
func (r *Request) String(key string) string {
	s, _ := r.attributes[key].(string)
	return s
}

func (r *Request) Has(key string) bool {
	_, ok := r.attributes[key]
	return ok
}

func (r *Request) Set(key string, value any) { r.attributes[key] = value }

func (r *Request) Delete(key string) { delete(r.attributes, key) }

// Attributes returns a copy of the input without files.
func (r *Request) Attributes() map[string]any { return maps.Clone(r.attributes) }

// All returns input and files together, the shape validators consume.
// A field with one file holds the file; several files become a list.
func (r *Request) All() map[string]any {
	all := maps.Clone(r.attributes)
	for name, files := range r.files {
		if len(files) == 1 {
			all[name] = files[0]
			continue
		}
		list := make([]any, len(files))
		for i, f := range files {
			list[i] = f
		}
		all[name] = list
	}
	return all
}

// Only returns the listed input keys that are present.
func (r *Request) Only(keys ...string) map[string]any {
	all := r.All()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Except returns all input except the listed keys.
func (r *Request) Except(keys ...string) map[string]any {
	all := r.All()
	for _, k := range keys {
		delete(all, k)
	}
	return all
}

// File returns the first file uploaded under name.
func (r *Request) File(name string) (*UploadedFile, bool) {
	files := r.files[name]
	if len(files) == 0 {
		return nil, false
	}
	return files[0], true
}

// Files returns every file uploaded under name.
func (r *Request) Files(name string) []*UploadedFile { return r.files[name] }

// HasFile reports whether a non-empty file was uploaded under name.
func (r *Request) HasFile(name string) bool {
	f, ok := r.File(name)
	return ok && !f.IsEmpty()
}

// Param returns a route parameter captured from the path.
func (r *Request) Param(name string) string { return r.params[name] }

// Params returns the captured parameters in pattern order.
func (r *Request) Params() []string { return slices.Clone(r.paramList) }

func (r *Request) setParams(names, values []string) {
	r.paramList = values
	for i, name := range names {
		r.params[name] = values[i]
	}
}

// Session returns the request session, or nil when sessions are disabled.
func (r *Request) Session() *session.Session { return r.session }

// Flash stores a one-request value in the session. It is a no-op when
// sessions are disabled.
func (r *Request) Flash(key string, value any) {
	if r.session != nil {
		r.session.Flash(key, value)
	}
}

// Old returns the input flashed by the last failed validation.
func (r *Request) Old(key string) any {
	if r.session == nil {
		return nil
	}
	old, _ := r.session.Get("old")
	if m, ok := old.(map[string]any); ok {
		return m[key]
	}
	return nil
}

// Errors returns the field errors flashed by the last failed validation.
func (r *Request) Errors() map[string]string {
	out := make(map[string]string)
	if r.session == nil {
		return out
	}
	raw, _ := r.session.Get("errors")
	switch m := raw.(type) {
	case map[string]string:
		maps.Copy(out, m)
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

func (r *Request) Context() context.Context { return r.ctx }

// SetContext replaces the request context.
func (r *Request) SetContext(ctx context.Context) { r.ctx = ctx }

// SetValue stores a request-scoped value on the context.
func (r *Request) SetValue(key, value any) { r.ctx = context.WithValue(r.ctx, key, value) }

func (r *Request) Value(key any) any { return r.ctx.Value(key) }

func (r *Request) Logger() *slog.Logger { return r.logger }

// SetResponseHeader sets a header on whatever response ends up being
// written, including error responses.
func (r *Request) SetResponseHeader(key, value string) { r.respHeader.Set(key, value) }

// Snapshot summarizes the request for logs.
func (r *Request) Snapshot() slog.Attr {
	return slog.Group("request",
		slog.String("method", r.http.Method),
		slog.String("path", r.path),
		slog.String("accept", r.http.Header.Get("Accept")),
		slog.String("remote_addr", r.http.RemoteAddr),
	)
}
