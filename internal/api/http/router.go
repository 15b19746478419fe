package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Intake         *handlers.IntakeHandler
	Admin          *handlers.AdminHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
	IntakeToken    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	app.Post("/intake/email", auth.RequireIntakeToken(cfg.IntakeToken), cfg.Intake.SubmitEmail)

	// Authentication is attached per route so unknown paths fall through to 404.
	authed := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), h}
	}

	app.Post("/chat/messages", authed(cfg.Intake.SubmitChat)...)
	app.Get("/chat/messages", authed(cfg.Intake.ChatHistory)...)

	app.Post("/tickets", authed(cfg.Tickets.CreateTicket)...)
	app.Get("/tickets", authed(cfg.Tickets.ListTickets)...)
	app.Get("/tickets/:id", authed(cfg.Tickets.GetTicket)...)
	app.Get("/tickets/:id/history", authed(cfg.Tickets.GetHistory)...)
	app.Patch("/tickets/:id/status", authed(cfg.Tickets.UpdateStatus)...)
	app.Post("/tickets/:id/notes", authed(cfg.Tickets.AddNotes)...)

	app.Get("/routing-rules", authed(cfg.Catalog.RoutingRules)...)
	app.Get("/teams", authed(cfg.Catalog.Teams)...)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), auth.RequireAdmin())
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Patch("/tickets/:id/assignment", cfg.Admin.UpdateAssignment)
	admin.Get("/analytics", cfg.Admin.Analytics)
}
