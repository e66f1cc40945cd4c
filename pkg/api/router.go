// Package api provides HTTP API server components.
package api

import (
	"net/http"

	"github.com/engram/engram/config"
	"github.com/engram/engram/pkg/api/handlers"
	"github.com/engram/engram/pkg/api/middleware"
	"github.com/engram/engram/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/engram/engram/docs/swagger" // Import generated docs
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Session handles session memory endpoints
	Session *handlers.SessionHandler

	// Prune handles the tool result pruning endpoint
	Prune *handlers.PruneHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// WebSocket handles the /ws/events stream
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Register global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// Tracing runs before metrics so exemplars can see the active span
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	}

	// Add metrics middleware if provided
	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))
	r.Use(middleware.RateLimit(&cfg.Server.RateLimit))

	// Websocket connections are long-lived and stay outside the request
	// timeout
	if handlers.WebSocket != nil {
		r.Method(http.MethodGet, "/ws/events", handlers.WebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))
		RegisterRoutes(r, handlers)
	})

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Tool result pruning
		if handlers.Prune != nil {
			r.Post("/prune", handlers.Prune.Prune)
		}

		if handlers.Session != nil {
			// Session-scoped memory routes
			r.Route("/sessions/{botID}/{threadID}", func(r chi.Router) {
				r.Post("/activities", handlers.Session.LogActivity)
				r.Get("/activities", handlers.Session.GetActivities)
				r.Get("/search", handlers.Session.Search)
				r.Post("/compact", handlers.Session.Compact)
			})

			// Bot-scoped shared memory routes
			r.Route("/bots/{botID}", func(r chi.Router) {
				r.Get("/sets", handlers.Session.ListSets)
				r.Get("/sets/{setName}", handlers.Session.ListSetMembers)
				r.Put("/sets/{setName}/{member}", handlers.Session.AddSetMember)
				r.Get("/sets/{setName}/{member}", handlers.Session.CheckSetMember)
				r.Get("/summaries", handlers.Session.ListSummaries)
			})
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
