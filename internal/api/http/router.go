package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/karyalaya/patra-service/internal/api/http/handlers"
	"github.com/karyalaya/patra-service/internal/auth"
	"github.com/karyalaya/patra-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	OrgUnits       *handlers.OrgUnitHandler
	Correspondence *handlers.CorrespondenceHandler
	Notifications  *handlers.NotificationHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", observability.MetricsHandler())

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	offices := protected.Group("/offices")
	offices.Get("/", cfg.OrgUnits.ListOffices)
	offices.Get("/:id/departments/", cfg.OrgUnits.ListDepartments)
	protected.Get("/departments/:id/sub-units/", cfg.OrgUnits.ListSubUnits)

	patra := protected.Group("/patra")
	patra.Get("/inbox/", cfg.Correspondence.Inbox)
	patra.Get("/sent/", cfg.Correspondence.Sent)
	patra.Post("/", cfg.Correspondence.Create)
	patra.Get("/:id/", cfg.Correspondence.Get)
	patra.Patch("/:id/mark-read/", cfg.Correspondence.MarkRead)
	patra.Post("/:id/transfer/", cfg.Correspondence.Transfer)
	patra.Patch("/:id/complete/", cfg.Correspondence.Complete)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count/", cfg.Notifications.UnreadCount)
	protected.Patch("/notification/:id/", cfg.Notifications.Patch)
}
