// Package web renders the statistics pages for echo.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
	"github.com/labstack/echo/v4"
)

// Page names accepted by Renderer.Render.
const (
	PageHome   = "home"
	PageStatic = "static"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := sprig.FuncMap()
	funcs["percentage"] = Percentage
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name+".html", data)
}

// Percentage formats n out of m as a percentage with one decimal place.
func Percentage(n, m int) string {
	if m == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(n)/float64(m)*100)
}
