package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/tablero-fiscal/tablero/internal/shared"
	"github.com/tablero-fiscal/tablero/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// Viewer is the signed-in user as shown in the navigation bar.
type Viewer struct {
	Name        string
	Role        string
	MinutesLeft int
}

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Path      string
	Title     string
	Protected bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Viewer      *Viewer
	Nav         []NavLink
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"toneClass": func(tone string) string {
			if tone == "" {
				return "kpi-neutral"
			}
			return "kpi-" + tone
		},
		"remaining": func(minutes int) string {
			if minutes >= 60 {
				return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
			}
			return fmt.Sprintf("%dm", minutes)
		},
		"active": func(current, path string) bool {
			if path == "/" {
				return current == "/"
			}
			return strings.HasPrefix(current, path)
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes the named template into a buffer and writes it only on success, so a
// failing template never leaves a half-written page behind.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("view: template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
