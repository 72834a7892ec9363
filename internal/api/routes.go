package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunisolar-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /api/v1/lunar/today           ?lat&lng&lang
//	GET  /api/v1/lunar/date/{date}     ?time&lat&lng&lang
//	GET  /api/v1/lunar/range           ?start&end&lang
//	GET  /api/v1/lunar/year/{year}     ?lang
//	GET  /api/v1/terms/{year}
//	GET  /api/v1/cache/stats           (API key)
//	POST /api/v1/cache/warm/{year}     (API key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))

		// ==========================================================================
		// Public routes
		// ==========================================================================
		r.Get("/lunar/today", handlers.GetToday)
		r.Get("/lunar/date/{date}", handlers.GetDate)
		r.Get("/lunar/range", handlers.GetRange)
		r.Get("/lunar/year/{year}", handlers.GetYear)
		r.Get("/terms/{year}", handlers.GetTerms)

		// ==========================================================================
		// Cache administration (API key)
		// ==========================================================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg, logger))
			r.Get("/cache/stats", handlers.GetCacheStats)
			r.Post("/cache/warm/{year}", handlers.WarmCache)
		})
	})

	return r
}
