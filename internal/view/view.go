// Package view renders pages as HTML (embedded templates) or JSON.
package view

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/session"
)

//go:embed templates
var templatesFS embed.FS

const (
	PageIndex        = "quizzes/index.html"
	PageShow         = "quizzes/show.html"
	PageNew          = "quizzes/new.html"
	PageEdit         = "quizzes/edit.html"
	PagePlay         = "quizzes/play.html"
	PageResult       = "quizzes/result.html"
	PageRandomPlay   = "quizzes/random_play.html"
	PageRandomNoMore = "quizzes/random_nomore.html"
	PageRandomResult = "quizzes/random_result.html"
	PageError        = "error.html"
)

// Page is what the layout sees; Body is handed to the page's "content" template.
type Page struct {
	Title   string
	Flashes []session.Flash
	Body    any
}

type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the layout and shared partials.
func New() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := strings.TrimPrefix(path, "templates/")
		if name == "layout.html" || name == "quizzes/form.html" {
			return nil
		}
		t, err := template.New(name).ParseFS(templatesFS, "templates/layout.html", "templates/quizzes/form.html", path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// HTML renders into a buffer first so template errors never leave a half-written page.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, p Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// JSON writes body as-is.
func (r *Renderer) JSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// Render picks JSON for API clients and HTML otherwise. Pending flashes of the
// request session are consumed by HTML pages only.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name, title string, body any) error {
	if WantsJSON(req) {
		return r.JSON(w, status, body)
	}
	p := Page{Title: title, Body: body}
	if s := session.FromContext(req.Context()); s != nil {
		p.Flashes = s.PopFlashes()
	}
	return r.HTML(w, status, name, p)
}

func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.URL.Query().Get("format") == "json"
}
