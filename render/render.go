// Package render turns parsed legislation into HTML pages.
package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/hhhapz/uksidoc/legislation"
)

//go:embed templates/*.html
var templates embed.FS

// ContentsPage is the payload handed to contents.html.
type ContentsPage struct {
	Title           string
	Description     string
	MadeDate        string
	ComingIntoForce string
	Articles        []legislation.Item
}

// ErrorPage is the payload handed to error.html.
type ErrorPage struct {
	Message string
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("uksidoc").Funcs(funcs).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

func Contents(doc legislation.Document) ContentsPage {
	return ContentsPage{
		Title:           doc.Title,
		Description:     doc.Description,
		MadeDate:        doc.MadeDate,
		ComingIntoForce: doc.ComingIntoForce,
		Articles:        doc.Items,
	}
}

func (r *Renderer) Contents(w io.Writer, doc legislation.Document) error {
	return r.tmpl.ExecuteTemplate(w, "contents.html", Contents(doc))
}

func (r *Renderer) Error(w io.Writer, message string) error {
	return r.tmpl.ExecuteTemplate(w, "error.html", ErrorPage{Message: message})
}
