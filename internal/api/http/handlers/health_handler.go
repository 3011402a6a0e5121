package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carebridge/referral-service/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness. Postgres is required; Redis only
// backs the advance lock and the roster-load cache, both of which
// degrade to no-ops, so a down Redis reports degraded instead of
// failing the probe.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	deps := fiber.Map{}
	status := "ready"

	start := time.Now()
	if err := h.postgres.Ping(ctx); err != nil {
		deps["postgres"] = fiber.Map{"status": "down", "error": err.Error()}
		status = "unavailable"
	} else {
		deps["postgres"] = fiber.Map{"status": "ok", "latency_ms": time.Since(start).Milliseconds()}
	}

	start = time.Now()
	if err := h.redis.Ping(ctx); err != nil {
		deps["redis"] = fiber.Map{"status": "degraded", "error": err.Error()}
		if status == "ready" {
			status = "degraded"
		}
	} else {
		deps["redis"] = fiber.Map{"status": "ok", "latency_ms": time.Since(start).Milliseconds()}
	}

	if status == "unavailable" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "postgres unavailable",
				"details": deps,
			},
		})
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"service":      h.serviceName,
		"dependencies": deps,
	})
}
