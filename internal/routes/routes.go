package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/dto"
	"github.com/skyreachair/leadfunnel/internal/handlers"
	"github.com/skyreachair/leadfunnel/internal/metrics"
	"github.com/skyreachair/leadfunnel/internal/middleware"
	"github.com/skyreachair/leadfunnel/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authService *services.AuthService,
	m *metrics.Metrics,
	contactHandler *handlers.ContactHandler,
	healthHandler *handlers.HealthHandler,
	siteHandler *handlers.SiteHandler,
	authHandler *handlers.AuthHandler,
	dashboardHandler *handlers.DashboardHandler,
) {
	app.Get("/metrics", m.Handler())

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(rateLimit(60))

	api.Get("/health", healthHandler.Check)
	api.Get("/site", siteHandler.Get)

	// Public intake, 10 req/min per IP
	contact := api.Group("/contact", rateLimit(10))
	contact.Post("/", contactHandler.Submit)
	contact.Post("/website", contactHandler.SubmitWebsite)

	session := middleware.SessionRequired(cfg, authService)

	auth := api.Group("/auth")
	auth.Post("/login", rateLimit(10), authHandler.Login)
	auth.Post("/logout", session, authHandler.Logout)
	auth.Get("/me", session, authHandler.Me)

	dashboard := api.Group("/dashboard", session)
	dashboard.Get("/stats", dashboardHandler.Stats)
	dashboard.Get("/leads", dashboardHandler.ListLeads)
	dashboard.Get("/leads/export", dashboardHandler.Export)
	dashboard.Get("/leads/:id", dashboardHandler.GetLead)
	dashboard.Put("/leads/:id/status", dashboardHandler.UpdateStatus)
	dashboard.Post("/leads/:id/notes", dashboardHandler.AddNote)

	admin := middleware.AdminRequired(cfg)
	dashboard.Put("/leads/:id/assign", admin, dashboardHandler.Assign)
	dashboard.Get("/users", admin, dashboardHandler.ListUsers)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(dto.Fail("Endpoint not found"))
	})
}

func rateLimit(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.Fail("Too many requests, please try again later."))
		},
	})
}
