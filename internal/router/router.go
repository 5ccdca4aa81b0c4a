package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/config"
	"github.com/noah-isme/exdb-api/internal/handler"
	"github.com/noah-isme/exdb-api/internal/middleware"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DB                     *gorm.DB
	AuthHandler            *handler.AuthHandler
	DashboardHandler       *handler.DashboardHandler
	ExperienceHandler      *handler.ExperienceHandler
	SearchHandler          *handler.SearchHandler
	ReferenceHandler       *handler.ReferenceHandler
	CompletionBoardHandler *handler.CompletionBoardHandler
	JWTMiddleware          fiber.Handler
	PrincipalLookup        middleware.PrincipalLookup
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.ScrapeHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	principal := middleware.RefreshPrincipal(deps.PrincipalLookup)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Post("/login", middleware.RateLimit("login", 10, time.Minute), deps.AuthHandler.Login)
		auth.Get("/me", jwtMiddleware, principal, middleware.WithAuth(deps.AuthHandler.Me, middleware.AuthOptions{RequireUser: true}))
	}

	protected := api.Group("", jwtMiddleware, principal, middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.Next()
	}, middleware.AuthOptions{RequireUser: true}))

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(protected.Group("/dashboard"))
	}

	experiences := protected.Group("/experiences")
	// Static paths go first so /:id does not capture them.
	if deps.SearchHandler != nil {
		deps.SearchHandler.Register(experiences)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterStatus(experiences)
	}
	if deps.ExperienceHandler != nil {
		deps.ExperienceHandler.Register(experiences)
	}

	if deps.CompletionBoardHandler != nil {
		board := protected.Group("/completion-board", middleware.RequireRole(models.UserRoleHallstaff))
		deps.CompletionBoardHandler.Register(board)
	}

	if deps.ReferenceHandler != nil {
		deps.ReferenceHandler.Register(protected.Group("/reference"))
		admin := protected.Group("/admin/reference", middleware.RequireSuperuser())
		deps.ReferenceHandler.RegisterAdmin(admin)
	}
}
