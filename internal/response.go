package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Response is what a handler returns. The kernel writes it after the
// session has been persisted.
type Response struct {
	Header http.Header
	Body   []byte
	Status int
}

// NewResponse creates a response with an empty header set.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Body:   body,
		Header: make(http.Header),
	}
}

// JSON encodes v as the response body.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("internal: encode json response: %w", err)
	}
	resp := NewResponse(status, body)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	return resp, nil
}

func HTML(status int, body string) *Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return resp
}

func Text(status int, body string) *Response {
	resp := NewResponse(status, []byte(body))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}

// Redirect answers 302 Found with a Location header.
func Redirect(location string) *Response {
	return RedirectWithStatus(http.StatusFound, location)
}

func RedirectWithStatus(status int, location string) *Response {
	resp := NewResponse(status, nil)
	resp.Header.Set("Location", location)
	return resp
}

func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// WithCookie adds a Set-Cookie header.
func (r *Response) WithCookie(c *http.Cookie) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if v := c.String(); v != "" {
		r.Header.Add("Set-Cookie", v)
	}
	return r
}

// write sends the response. HEAD requests get headers only.
func (r *Response) write(w http.ResponseWriter, head bool) {
	h := w.Header()
	for k, vals := range r.Header {
		for _, v := range vals {
			h.Add(k, v)
		}
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	if len(r.Body) > 0 && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	w.WriteHeader(status)
	if !head && len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}
