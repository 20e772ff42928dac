package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds the chi router. The health endpoint is unauthenticated; dashboard,
// snapshot and session routes require bearer auth. Rate limiting is global at
// 60 requests per minute per IP.
func NewRouter(handlers *Handlers, sessions *SessionHandlers, token string, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, redisClient, log))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))

		r.Get("/api/v1/dashboards/{city}", handlers.GetDashboard)
		r.Post("/api/v1/dashboards/{city}/refresh", handlers.RefreshDashboard)
		r.Get("/api/v1/snapshots", handlers.ListSnapshots)

		r.Post("/api/v1/sessions", sessions.Create)
		r.Route("/api/v1/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Put("/preferences", sessions.SetPreferences)
			r.Post("/search", sessions.Search)
			r.Post("/refresh", sessions.Refresh)
			r.Post("/favorites", sessions.AddFavorite)
			r.Delete("/favorites/{locationID}", sessions.RemoveFavorite)
		})
	})

	return r
}

var _ http.Handler = (*chi.Mux)(nil)
