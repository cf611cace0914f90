// Package web renders the HTML views from embedded templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/JakeFAU/openwax/internal/score"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Renderer.Render.
const (
	PageMain   = "main"
	PageSearch = "search"
)

// Page is the data handed to every view.
type Page struct {
	// Title is the localized page title, empty on the main page.
	Title string
	// Lang is the negotiated locale code.
	Lang string
	// T translates UI strings.
	T func(string) string
	// Query is the effective search query.
	Query string
	Count int
	Avg   float64
	List  []score.Record
}

// Renderer executes parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"avg":     FormatAverage,
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageMain, PageSearch} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page name to w. Output is buffered so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if page.T == nil {
		page.T = func(s string) string { return s }
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// FormatAverage prints avg with the shortest representation: 5.5 as "5.5"
// and 6 as "6".
func FormatAverage(avg float64) string {
	return strconv.FormatFloat(avg, 'f', -1, 64)
}
