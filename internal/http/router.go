package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docuchat/internal/handlers"
	"docuchat/internal/query"
	"docuchat/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Registry    storage.ProfileRegistry
	QueryEngine query.Engine
	Health      handlers.StoreChecker
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	profilesHandler := handlers.NewProfilesHandler(deps.Registry)
	queryHandler := handlers.NewQueryHandler(deps.QueryEngine)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profiles", profilesHandler.List)
		r.Post("/profiles", profilesHandler.Create)
		r.Get("/profiles/current", profilesHandler.Current)
		r.Post("/profiles/{id}/activate", profilesHandler.Activate)
		r.Delete("/profiles/{id}", profilesHandler.Delete)
		r.Post("/profiles/{id}/restore", profilesHandler.Restore)
		r.Get("/hidden-profiles", profilesHandler.Hidden)

		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
