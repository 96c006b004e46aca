package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/vitrine/internal/auth"
	"github.com/BradenHooton/vitrine/internal/handlers"
	"github.com/BradenHooton/vitrine/internal/middleware"
	"github.com/BradenHooton/vitrine/internal/models"
	pkghttp "github.com/BradenHooton/vitrine/pkg/http"
)

// Options tunes the per-route rate limits. Zero values use the middleware defaults.
type Options struct {
	IPConfig                *pkghttp.IPConfig
	LoginRequestsPerMinute  int
	StatusRequestsPerMinute int
	AdminRequestsPerMinute  int
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	adminHandler *handlers.AdminHandler,
	auditHandler *handlers.AuditHandler,
	tokenManager *auth.TokenManager,
	userRepo auth.UserRepository,
	opts Options,
) {
	loginLimit := middleware.DefaultLoginRateLimit()
	if opts.LoginRequestsPerMinute > 0 {
		loginLimit.RequestsPerMinute = opts.LoginRequestsPerMinute
	}
	loginLimit.IPConfig = opts.IPConfig

	statusLimit := middleware.DefaultStatusRateLimit()
	if opts.StatusRequestsPerMinute > 0 {
		statusLimit.RequestsPerMinute = opts.StatusRequestsPerMinute
	}
	statusLimit.IPConfig = opts.IPConfig

	adminLimit := middleware.RateLimitConfig{RequestsPerMinute: 120, IPConfig: opts.IPConfig}
	if opts.AdminRequestsPerMinute > 0 {
		adminLimit.RequestsPerMinute = opts.AdminRequestsPerMinute
	}

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(statusLimit)).Get("/auth/attempts", authHandler.AttemptStatus)

	// Admin-only routes
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))
		r.Use(auth.RequireRole(userRepo, models.RoleAdmin))
		r.Use(middleware.RateLimitByUser(adminLimit))

		r.Get("/throttled", adminHandler.ListThrottled)
		r.Get("/attempts/{email}", adminHandler.GetAttempts)
		r.Delete("/attempts/{email}", adminHandler.ResetAttempts)
		r.Get("/security-events", auditHandler.ListSecurityEvents)
	})
}
