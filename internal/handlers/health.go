package handlers

import (
	"github.com/gofiber/fiber/v2"

	"zeen/internal/repositories"
	"zeen/internal/services/gateway"
)

type HealthHandler struct {
	registry *gateway.Registry
}

func NewHealthHandler(registry *gateway.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Check reports process liveness plus the state of the database, redis
// and the registered gateways.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "connected"
	if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		dbStatus = "unavailable"
	}

	redisStatus := "connected"
	if repositories.CacheService == nil || repositories.CacheService.HealthCheck(c.Context()) != nil {
		redisStatus = "unavailable"
	}

	gateways := fiber.Map{}
	for _, name := range h.registry.Names() {
		gw, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		status := "available"
		if !gw.IsAvailable(c.Context()) {
			status = "unavailable"
		}
		gateways[name] = status
	}

	status := fiber.StatusOK
	if dbStatus != "connected" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"services": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"gateways": gateways,
		},
	})
}
