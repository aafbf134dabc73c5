// Package web holds the server-rendered pages. The markup is kept
// deliberately plain; forms and instructions only.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SuccessData feeds the post-registration and post-edit instructions page.
type SuccessData struct {
	StudentName   string
	PhoneNumberID string
	FlowBaseURL   string
	FlowID        string
	WebhookURL    string
	VerifyToken   string
}

// ErrorData feeds the error page.
type ErrorData struct {
	Message string
}

// Render executes the named page into a byte slice. Page names are the
// template file names: register.html, edit.html, success.html,
// error.html, policies.html.
func Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
