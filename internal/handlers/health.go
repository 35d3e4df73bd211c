package handlers

import (
	"github.com/gofiber/fiber/v2"

	"schedulo/internal/database"
	"schedulo/internal/services"
)

// HealthHandler reports liveness and dependency status.
type HealthHandler struct {
	db    *database.DB
	redis *services.RedisService
}

func NewHealthHandler(db *database.DB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health returns 200 while the process and its hard dependencies are up.
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if err := h.db.PingContext(c.Context()); err != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Context()); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	status := "healthy"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}
