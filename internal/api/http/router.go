package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/emmanuelfore/tarisa-sub001/internal/api/http/handlers"
	"github.com/emmanuelfore/tarisa-sub001/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Issues         *handlers.IssuesHandler
	Jurisdictions  *handlers.JurisdictionsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	v1 := app.Group("/v1")
	v1.Get("/jurisdictions/resolve", cfg.Jurisdictions.Resolve)

	issues := v1.Group("/issues")
	issues.Post("", cfg.Issues.Submit)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Get("/:id/history", cfg.Issues.History)
	issues.Get("/:id/nearby", cfg.Issues.Nearby)
	issues.Get("/:id/similar", cfg.Issues.Similar)

	// Group-level handlers would also run for the public routes above, so the
	// operator routes authenticate individually.
	authn := cfg.AuthMiddleware.Handle
	issues.Post("/:id/status", authn, cfg.Issues.UpdateStatus)
	issues.Post("/:id/duplicate", authn, cfg.Issues.ConfirmDuplicate)
	issues.Post("/:id/route", authn, auth.RequireCapability(auth.CapabilityRoute), cfg.Issues.Reroute)
	issues.Post("/:id/escalate", authn, auth.RequireCapability(auth.CapabilityEscalate), cfg.Issues.Escalate)

	admin := v1.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Post("/escalations/sweep", auth.RequireCapability(auth.CapabilityEscalate), cfg.Admin.Sweep)
	admin.Post("/reference/refresh", auth.RequireCapability(auth.CapabilityReference), cfg.Admin.RefreshReference)
}
