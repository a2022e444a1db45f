// Package main is the entry point for the payments API server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"zeen/internal/config"
	"zeen/internal/logging"
	"zeen/internal/repositories"
	"zeen/internal/routes"
)

func main() {
	config.LoadEnv()
	logging.Setup(config.GetEnv("LOG_LEVEL", "info"), !config.IsProduction())
	log := logging.Logger()

	if err := repositories.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("database initialization failed")
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database instance")
	}
	sqlDB.SetMaxIdleConns(config.GetIntEnv("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetMaxOpenConns(config.GetIntEnv("DB_MAX_OPEN_CONNS", 100))
	sqlDB.SetConnMaxLifetime(config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour))
	sqlDB.SetConnMaxIdleTime(config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute))
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("database ping failed")
	}

	app := fiber.New(fiber.Config{
		AppName:      "zeen-payments",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Gateways retry webhooks aggressively on errors; keep a generous
	// per-IP ceiling so a retry storm cannot starve the API.
	app.Use("/api/webhooks", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("WEBHOOK_RATE_LIMIT", 120),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, repositories.DB)

	addr := ":" + config.GetEnv("PORT", "3000")
	log.Info().Str("addr", addr).Msg("payments API listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
