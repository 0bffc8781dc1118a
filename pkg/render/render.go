// Package render produces the HTML bodies returned by the search endpoint.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/pinfetch/pinfetch/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl   *template.Template
	footer string
}

// New parses the embedded templates. footer is the copyright line shown on every page.
func New(footer string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, footer: footer}, nil
}

// InvalidInput writes the fragment for a request that failed validation.
func (r *Renderer) InvalidInput(w io.Writer) error {
	return r.exec(w, "invalid", struct{ Footer string }{r.footer})
}

// NoResults writes the fragment for a query the upstream API had nothing for.
func (r *Renderer) NoResults(w io.Writer, query string) error {
	return r.exec(w, "noresults", struct{ Query, Footer string }{query, r.footer})
}

// Error writes the generic failure fragment.
func (r *Renderer) Error(w io.Writer) error {
	return r.exec(w, "error", struct{ Footer string }{r.footer})
}

// Results writes the gallery page. The count shown is the requested count.
func (r *Renderer) Results(w io.Writer, req models.SearchRequest, images []models.CachedImage) error {
	return r.exec(w, "results", struct {
		Query  string
		Count  int
		Images []models.CachedImage
		Footer string
	}{req.Query, req.Count, images, r.footer})
}

// Form writes the search form page.
func (r *Renderer) Form(w io.Writer) error {
	return r.exec(w, "form", struct {
		Min, Max int
		Footer   string
	}{models.MinCount, models.MaxCount, r.footer})
}

func (r *Renderer) exec(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
