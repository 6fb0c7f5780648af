package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compdb/internal/handlers"
	"compdb/internal/registry"
	"compdb/internal/service"
)

// Deps holds dependencies for the HTTP router.
// A nil MetricsHandler serves the Prometheus default registry.
type Deps struct {
	BuildService   service.BuildService
	RegistryStore  registry.Store
	Registry       handlers.RegistryReader
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	healthHandler := handlers.NewHealthHandler(deps.RegistryStore, deps.Registry)
	databasesHandler := handlers.NewDatabasesHandler(deps.BuildService)
	buildsHandler := handlers.NewBuildsHandler(deps.BuildService)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Get("/databases", databasesHandler.List)
		r.Get("/databases/latest", databasesHandler.Latest)
		r.Post("/builds", buildsHandler.Start)
		r.Get("/builds/{id}", buildsHandler.Status)
		r.Post("/builds/{id}/cancel", buildsHandler.Cancel)
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}
