package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/bootstrap"
	"github.com/noah-isme/exdb-api/internal/config"
	"github.com/noah-isme/exdb-api/internal/database"
	"github.com/noah-isme/exdb-api/internal/handler"
	"github.com/noah-isme/exdb-api/internal/middleware"
	"github.com/noah-isme/exdb-api/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := bootstrap.NewLogger(cfg, os.Stdout)

	container, err := bootstrap.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise services: %v", err)
	}
	defer container.Close()

	if err := database.Migrate(container.DB); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ProxyHeader:  cfg.ProxyHeader,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		DB:                     container.DB,
		AuthHandler:            handler.NewAuthHandler(container.Auth, container.Validator, logger),
		DashboardHandler:       handler.NewDashboardHandler(container.Dashboard, logger),
		ExperienceHandler:      handler.NewExperienceHandler(container.Experience, container.Approval, logger),
		SearchHandler:          handler.NewSearchHandler(container.Search, logger),
		ReferenceHandler:       handler.NewReferenceHandler(container.Reference, container.Validator, logger),
		CompletionBoardHandler: handler.NewCompletionBoardHandler(container.CompletionBoard, logger),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
		PrincipalLookup:        bootstrap.PrincipalLookup(container.Auth),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
