package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTitles = map[string]string{
	"text":     "Check a message",
	"link":     "Check a link",
	"image":    "Check a screenshot",
	"document": "Check a document",
	"audio":    "Check a recording",
	"live":     "Live call check",
}

type pageData struct {
	Title      string
	Active     string
	GatewayURL string
}

// pageHandler renders one check page. Templates are parsed once at
// startup; a missing template is a programming error and panics there.
func (h *Handlers) pageHandler(name string) http.HandlerFunc {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html"))
	data := pageData{
		Title:      pageTitles[name],
		Active:     name,
		GatewayURL: h.GatewayURL,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
			log.Warn().Err(err).Str("page", name).Msg("Failed to render page")
		}
	}
}
