package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/abhisek/eslens/internal/config"
)

// NewRouter builds the HTTP handler with middleware and all API routes.
func NewRouter(h *Handler, corsCfg config.CORSConfig, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(corsCfg))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", h.Health)
		api.Get("/languages", h.Languages)
		api.Get("/stats", h.Stats)
		api.Post("/translate", h.Translate)
		api.Post("/detect-language", h.DetectLanguage)

		api.Route("/homework", func(hw chi.Router) {
			hw.Post("/upload", h.Upload)
			hw.Get("/sessions", h.ListSessions)
			hw.Post("/sessions/{id}/complete", h.CompleteSession)
			hw.Post("/sessions/{id}/bootstrap", h.BootstrapSession)
			hw.Get("/sessions/{id}/image", h.SessionImage)
		})

		api.Route("/tutor", func(tu chi.Router) {
			tu.Post("/chat", h.Chat)
			tu.Get("/history/{sessionId}", h.History)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}
