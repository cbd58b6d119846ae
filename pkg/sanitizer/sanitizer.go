package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict  *bluemonday.Policy
	rich    *bluemonday.Policy
	initPol sync.Once
)

func policies() {
	initPol.Do(func() {
		strict = bluemonday.StrictPolicy()

		rich = bluemonday.NewPolicy()
		rich.AllowStandardURLs()
		rich.AllowElements("p", "br", "strong", "b", "em", "i", "ul", "ol", "li", "h3", "h4")
		rich.AllowAttrs("href").OnElements("a")
		rich.RequireNoFollowOnLinks(true)
	})
}

// Text strips all markup from s and returns plain text: entities are decoded
// again so "Tom & Jerry" survives. Output must still be escaped when rendered.
func Text(s string) string {
	policies()
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// HTML keeps basic formatting and links. Use it for product descriptions
// written in the admin area.
func HTML(s string) string {
	policies()
	return rich.Sanitize(s)
}

// Values applies Text to every string in a decoded form, descending into
// slices and nested maps. Values listed in skip are left untouched.
func Values(values map[string]any, skip ...string) {
	for k, v := range values {
		if contains(skip, k) {
			continue
		}
		values[k] = value(v)
	}
}

func value(v any) any {
	switch t := v.(type) {
	case string:
		return Text(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = Text(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = value(item)
		}
		return out
	case map[string]any:
		Values(t)
		return t
	}
	return v
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
