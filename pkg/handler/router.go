package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter serves the admin api below its path and sitemaps everywhere else
func NewRouter(sitemaps *Sitemap, admin *HTTP) http.Handler {
	r := chi.NewRouter()
	if admin != nil {
		admin.Routes(r)
	}
	sitemaps.Routes(r)
	return r
}
