package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"schedulo/internal/middleware"
	"schedulo/internal/services"
)

// NotificationHandler serves push subscription management and the
// notification history.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Subscribe registers a device push token for the user.
// POST /api/notifications/subscriptions
func (h *NotificationHandler) Subscribe(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token is required"})
	}

	sub, err := h.notifications.Subscribe(c.Context(), middleware.UserID(c), strings.TrimSpace(req.Token))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// Unsubscribe removes a push subscription.
// DELETE /api/notifications/subscriptions/:id
func (h *NotificationHandler) Unsubscribe(c *fiber.Ctx) error {
	if err := h.notifications.Unsubscribe(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Recent lists the user's recently sent notifications, newest first.
// GET /api/notifications?limit=20
func (h *NotificationHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	items, err := h.notifications.Recent(c.Context(), middleware.UserID(c), limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": items})
}
