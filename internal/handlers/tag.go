package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"schedulo/internal/middleware"
	"schedulo/internal/services"
)

// TagHandler serves the tag endpoints.
type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// Create returns the named tag, creating it with the next palette color if
// it does not exist yet.
// POST /api/tags
func (h *TagHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	tag, err := h.tags.GetOrCreate(c.Context(), middleware.UserID(c), strings.TrimSpace(req.Name))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// List returns all of the user's tags.
// GET /api/tags
func (h *TagHandler) List(c *fiber.Ctx) error {
	tags, err := h.tags.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// Update renames a tag; the color is kept.
// PATCH /api/tags/:id
func (h *TagHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tag id"})
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	tag, err := h.tags.Rename(c.Context(), middleware.UserID(c), id, strings.TrimSpace(req.Name))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(tag)
}

// Delete removes a tag and detaches it from every schedule.
// DELETE /api/tags/:id
func (h *TagHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tag id"})
	}

	if err := h.tags.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
