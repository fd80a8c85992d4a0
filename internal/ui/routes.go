package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolbook/internal/ui/assets"
)

// MountRoutes attaches the HTML pages and static assets to the router.
func MountRoutes(r chi.Router, h *Handler) {
	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Get("/", h.Records)
	r.Get("/loads", h.Loads)
}
