package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"schedulo/internal/middleware"
	"schedulo/internal/models"
	"schedulo/internal/services"
)

// TimetableHandler serves the weekly timetable endpoints.
type TimetableHandler struct {
	timetables *services.TimetableService
	crawler    *services.CrawlerService
}

func NewTimetableHandler(timetables *services.TimetableService, crawler *services.CrawlerService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, crawler: crawler}
}

type timetableRequest struct {
	Subject   string `json:"subject"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Create adds a class slot. Overlapping slots on the same weekday are
// rejected with 409.
// POST /api/timetables
func (h *TimetableHandler) Create(c *fiber.Ctx) error {
	var req timetableRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	entry, err := h.timetables.Create(c.Context(), models.TimeTable{
		UserID:    middleware.UserID(c),
		Subject:   req.Subject,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// List returns grid-ready entries (name/col/start_hour/end_hour/color).
// GET /api/timetables
func (h *TimetableHandler) List(c *fiber.Ctx) error {
	rendered, err := h.timetables.ListRendered(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"timetables": rendered})
}

// Update replaces a class slot. All fields are required.
// PUT /api/timetables/:id
func (h *TimetableHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid timetable id"})
	}

	var req timetableRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	entry, err := h.timetables.Update(c.Context(), middleware.UserID(c), id, models.TimeTable{
		UserID:    middleware.UserID(c),
		Subject:   req.Subject,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(entry)
}

// Delete removes a class slot.
// DELETE /api/timetables/:id
func (h *TimetableHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid timetable id"})
	}

	if err := h.timetables.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export streams the timetable as an xlsx workbook.
// GET /api/timetables/export
func (h *TimetableHandler) Export(c *fiber.Ctx) error {
	data, err := h.timetables.ExportXLSX(c.Context(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	filename := fmt.Sprintf("timetable_%s.xlsx", time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(data)
}

// Import kicks off an asynchronous portal import of the timetable.
// POST /api/timetables/import
func (h *TimetableHandler) Import(c *fiber.Ctx) error {
	if !h.crawler.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Import service not configured"})
	}

	if err := h.crawler.TriggerTimetableImport(c.Context(), middleware.UserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
}
