package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/api/http/handlers"
	"github.com/civicdesk/grievance-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Complaints     *handlers.ComplaintsHandler
	Dashboard      *handlers.DashboardHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/stats", cfg.Health.Stats)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/admins/register", cfg.Users.RegisterAdmin)
	authGroup.Post("/login", cfg.Users.Login)

	app.Post("/complaints", cfg.AuthMiddleware.Optional, auth.RejectUnverified(), cfg.Complaints.Submit)

	// admin routes share paths with public ones, so guards are per route
	admin := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAdmin(), h}
	}
	app.Get("/complaints", admin(cfg.Complaints.List)...)
	app.Get("/complaints/:id", admin(cfg.Complaints.Get)...)
	app.Patch("/complaints/:id/status", admin(cfg.Complaints.UpdateStatus)...)
	app.Get("/dashboard", admin(cfg.Dashboard.Dashboard)...)
	app.Post("/admin/codes", admin(cfg.Admin.IssueCode)...)
	app.Post("/admin/users/:id/verify", admin(cfg.Admin.VerifyUser)...)
}
