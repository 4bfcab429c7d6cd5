package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sentinelops/triage/internal/api/handlers"
	"github.com/sentinelops/triage/internal/api/middleware"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/metrics"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Event   *handlers.EventHandler
	Alert   *handlers.AlertHandler
	Action  *handlers.ActionHandler
	Breaker *handlers.BreakerHandler
	Audit   *handlers.AuditHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200
	r.Use(metrics.Middleware)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())

		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		r.Get("/api/v1/auth/me", h.Auth.Me)

		// Event ingestion
		r.Post("/api/v1/events", h.Event.Ingest)

		// Alerts
		r.Route("/api/v1/alerts", func(r chi.Router) {
			r.Get("/", h.Alert.List)
			r.Get("/summary", h.Alert.GetSummary)
			r.Get("/{id}", h.Alert.Get)
			r.Post("/{id}/outcome", h.Alert.Resolve)
		})

		// Actions
		r.Route("/api/v1/actions", func(r chi.Router) {
			r.Get("/", h.Action.List)
			r.Get("/summary", h.Action.GetSummary)
			r.Get("/{id}", h.Action.Get)
			r.Post("/{id}/approve", h.Action.Approve)
			r.Post("/{id}/reject", h.Action.Reject)
			r.Post("/{id}/rollback", h.Action.Rollback)
		})

		// Circuit breaker
		r.Route("/api/v1/breaker", func(r chi.Router) {
			r.Get("/", h.Breaker.Get)
			r.With(middleware.RequireAdmin).Post("/trip", h.Breaker.Trip)
			r.With(middleware.RequireAdmin).Post("/reset", h.Breaker.Reset)
		})

		// Audit trail
		r.Get("/api/v1/audit", h.Audit.List)
	})

	return r
}
