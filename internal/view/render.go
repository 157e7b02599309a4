package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var page = template.Must(template.New("dashboard.html").
	Funcs(template.FuncMap{"title": Title}).
	ParseFS(templateFS, "templates/dashboard.html"))

// Render writes the dashboard page. A skeleton replaces the forecast while
// the dashboard is loading.
func Render(w io.Writer, d Dashboard) error {
	return page.Execute(w, d)
}
