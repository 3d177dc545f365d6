package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/collectedworks/backend/app"
	"github.com/collectedworks/backend/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}

	checkers := []handlers.AvailabilityChecker{deps.Pinecone, deps.OpenAI}
	healthHandler := handlers.NewHealthHandler(db, checkers, deps.Logger)
	askHandler := handlers.NewAskHandler(deps.QueryService, deps.Logger)
	statusHandler := handlers.NewStatusHandler(deps.Config, deps.HistoryService, deps.Logger)

	var historyService handlers.HistoryService
	if deps.HistoryService != nil {
		historyService = deps.HistoryService
	}
	historyHandler := handlers.NewHistoryHandler(historyService, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/ask", askHandler.HandleAsk)
		r.Get("/status", statusHandler.HandleStatus)

		// Query history (requires authentication)
		r.Route("/history", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", historyHandler.HandleList)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
