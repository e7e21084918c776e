// Package web serves the risk-checking application: HTML pages for the
// six check types and the JSON API the pages call. Every API route is a
// proxy; judgments come from the remote analysis backend.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dulateaad/TrustChecker/internal/analysis"
	"github.com/Dulateaad/TrustChecker/internal/upload"
)

// Handlers bundles the clients the routes delegate to.
type Handlers struct {
	Analysis *analysis.Client
	Upload   *upload.Client

	// GatewayURL is handed to the live page so the browser knows where
	// to open its streaming connection.
	GatewayURL string
}

// NewRouter constructs the HTTP router for the application.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// HTML pages
	r.Get("/", h.pageHandler("text"))
	r.Get("/text", h.pageHandler("text"))
	r.Get("/link", h.pageHandler("link"))
	r.Get("/image", h.pageHandler("image"))
	r.Get("/document", h.pageHandler("document"))
	r.Get("/audio", h.pageHandler("audio"))
	r.Get("/live", h.pageHandler("live"))

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze/text", h.analyzeText)
		r.Post("/analyze/live-text", h.analyzeText)
		r.Post("/analyze/link", h.analyzeLink)
		r.Post("/analyze/image", h.analyzeImage)
		r.Post("/analyze/document", h.analyzeDocument)
		r.Post("/analyze/audio", h.analyzeAudio)
		r.Post("/upload-url", h.uploadURL)
		r.Post("/upload-proxy", h.uploadProxy)
	})

	return r
}
