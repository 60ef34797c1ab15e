package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lunarspired/portfolio-chat/app"
	"github.com/lunarspired/portfolio-chat/handlers"
	"github.com/lunarspired/portfolio-chat/middleware"
	"github.com/lunarspired/portfolio-chat/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}
	r.Use(middleware.ResolveCaller)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(databaseHealth(deps), deps.Generator != nil, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	chatHandler := handlers.NewChatHandler(deps.Chat, deps.Logger)
	historyHandler := handlers.NewHistoryHandler(deps.SessionStore, deps.Logger)

	// The front-end calls both the bare and /api-prefixed paths
	for _, prefix := range []string{"", "/api"} {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.Limiter, deps.Metrics, handlers.HandleServiceError, deps.Logger))
			r.Post(prefix+"/chat", chatHandler.HandleChat)
		})

		r.Group(func(r chi.Router) {
			if deps.AdminAuth != nil {
				r.Use(deps.AdminAuth.RequireAuth)
				r.Use(deps.AdminAuth.RequireRole(middleware.AdminRole))
			}
			r.Get(prefix+"/chat-history", historyHandler.HandleList)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// databaseHealth keeps a nil *postgres.DB out of the interface
func databaseHealth(deps *app.Dependencies) handlers.HealthChecker {
	if deps.DB == nil {
		return nil
	}
	return deps.DB
}
