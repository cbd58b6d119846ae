// Package views renders the storefront's HTML pages.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dmitrymomot/storefront"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.New("").ParseFS(files, "templates/*.html"))

// StatusKey is the flash key for one-line notices such as "Logged out".
const StatusKey = "status"

// Data is what every page receives.
type Data struct {
	Values map[string]any
	Errors map[string]string
	Old    func(key string) any
	Status string
	Title  string
}

// Render executes the named page with the request's flashed errors,
// old input and status message.
func Render(r *storefront.Request, status int, name, title string, values map[string]any) (*storefront.Response, error) {
	var msg string
	if sess := r.Session(); sess != nil {
		v, _ := sess.Get(StatusKey)
		msg, _ = v.(string)
	}
	data := Data{
		Title:  title,
		Values: values,
		Errors: r.Errors(),
		Old:    r.Old,
		Status: msg,
	}
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return storefront.HTML(status, buf.String()), nil
}

// ErrorPage renders the error page used by the exception handler.
func ErrorPage(code int, message string) string {
	var buf bytes.Buffer
	err := pages.ExecuteTemplate(&buf, "error.html", Data{
		Title:  http.StatusText(code),
		Values: map[string]any{"code": code, "message": message},
	})
	if err != nil {
		return storefront.DefaultErrorPage(code, message)
	}
	return buf.String()
}
