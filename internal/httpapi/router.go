// Package httpapi is the JSON-over-HTTP transport for the notebook services.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"notebookService/internal/auth"
	"notebookService/internal/service"
)

// Handlers binds the services to HTTP routes.
type Handlers struct {
	svc *service.Services
}

// NewRouter builds the /api/v1 routes. Everything except registration, login
// and the health probe requires a bearer token.
func NewRouter(svc *service.Services, verifier *auth.Verifier, log zerolog.Logger) http.Handler {
	h := &Handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", h.register)
		r.Post("/users/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))

			r.Get("/users/details", h.userDetails)
			r.Get("/users/photo", h.userPhoto)
			r.Put("/users", h.updateUser)

			r.Get("/notes", h.listNotes)
			r.Post("/notes", h.createNote)
			r.Get("/notes/{id}", h.getNote)
			r.Put("/notes/{id}", h.updateNote)
			r.Delete("/notes/{id}", h.deleteNote)
			r.Get("/notes/{id}/sections", h.listSections)
			r.Post("/notes/{id}/sections", h.createSection)

			r.Get("/sections/{id}", h.getSection)
			r.Put("/sections/{id}", h.renameSection)
			r.Delete("/sections/{id}", h.deleteSection)
			r.Get("/sections/{id}/pages", h.listPages)
			r.Post("/sections/{id}/pages", h.createPage)

			r.Get("/pages/{id}", h.getPage)
			r.Put("/pages/{id}", h.updatePage)
			r.Delete("/pages/{id}", h.deletePage)
		})
	})
	return r
}
