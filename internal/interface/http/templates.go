package http

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

func pageTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type page struct {
	Title       string
	Email       string
	DisplayName string
	Error       string
	Notice      string
}
