package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

const (
	corsAllowHeaders  = "Origin, Content-Type, Accept, Authorization, X-Correlation-ID, X-Request-ID"
	corsExposeHeaders = "X-Correlation-ID, Content-Disposition"
	corsAllowMethods  = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
)

// Config customises the middleware chain shared by every EXDB route.
type Config struct {
	Logger *zerolog.Logger
	// AllowOrigins lists the web client origins, comma separated. Empty allows any.
	AllowOrigins string
	// AccessLog enables the plain-text fiber access log next to the structured one.
	AccessLog bool
}

// Register installs panic recovery, correlation IDs, request metrics and CORS.
// Export downloads read Content-Disposition, so it is exposed to browsers.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	origins := strings.TrimSpace(cfg.AllowOrigins)
	if origins == "" {
		origins = "*"
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  corsAllowHeaders,
		AllowMethods:  corsAllowMethods,
		ExposeHeaders: corsExposeHeaders,
	}))
}
