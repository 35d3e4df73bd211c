package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"schedulo/internal/middleware"
	"schedulo/internal/models"
	"schedulo/internal/services"
)

// ScheduleHandler serves the schedule CRUD endpoints.
type ScheduleHandler struct {
	schedules *services.ScheduleService
	crawler   *services.CrawlerService
}

func NewScheduleHandler(schedules *services.ScheduleService, crawler *services.CrawlerService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, crawler: crawler}
}

func pathID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// Create adds a schedule.
// POST /api/schedules
func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	var req models.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	schedule, err := h.schedules.Create(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(schedule)
}

// List returns schedules grouped by date. Filters: date (exact),
// date+deadline (inclusive range), tag (by name).
// GET /api/schedules?date=2026-03-02&deadline=2026-03-08&tag=CS
func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	filter := services.ListFilter{
		ScheduledDate: c.Query("date"),
		Deadline:      c.Query("deadline"),
		TagName:       c.Query("tag"),
	}

	schedules, err := h.schedules.List(c.Context(), middleware.UserID(c), filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"schedules": models.GroupSchedulesByDate(schedules)})
}

// Get returns one schedule.
// GET /api/schedules/:id
func (h *ScheduleHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	schedule, err := h.schedules.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(schedule)
}

// Update applies a partial update; a present tag array replaces all tags.
// PATCH /api/schedules/:id
func (h *ScheduleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	var req models.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	schedule, err := h.schedules.Update(c.Context(), middleware.UserID(c), id, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(schedule)
}

// Delete removes a schedule.
// DELETE /api/schedules/:id
func (h *ScheduleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	if err := h.schedules.DeleteOwned(c.Context(), middleware.UserID(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleComplete flips a schedule's completion state.
// POST /api/schedules/:id/complete
func (h *ScheduleHandler) ToggleComplete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	schedule, err := h.schedules.ToggleComplete(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(schedule)
}

// Import kicks off an asynchronous portal import of schedules.
// POST /api/schedules/import
func (h *ScheduleHandler) Import(c *fiber.Ctx) error {
	if !h.crawler.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Import service not configured"})
	}

	if err := h.crawler.TriggerScheduleImport(c.Context(), middleware.UserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}
