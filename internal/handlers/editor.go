package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/engine"
	"inkmemory/internal/services"
)

// EditorHandler handles document mutation HTTP requests
type EditorHandler struct {
	sessionService *services.SessionService
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(sessionService *services.SessionService) *EditorHandler {
	return &EditorHandler{sessionService: sessionService}
}

func (h *EditorHandler) engine(c *fiber.Ctx) (*engine.Engine, error) {
	return h.sessionService.GetEngine(c.Params("id"))
}

// GetState returns the current editor state
// GET /api/sessions/:id/state
func (h *EditorHandler) GetState(c *fiber.Ctx) error {
	eng, err := h.engine(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	data, err := eng.Serialize()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to serialize state",
		})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(data)
}

// UpdateText replaces a text cell's content
// PUT /api/sessions/:id/cells/:cellId
func (h *EditorHandler) UpdateText(c *fiber.Ctx) error {
	eng, err := h.engine(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := eng.UpdateTextCell(c.Params("cellId"), req.Content); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// InsertWidget inserts a widget relative to a position in a text cell
// POST /api/sessions/:id/cells/:cellId/widgets
func (h *EditorHandler) InsertWidget(c *fiber.Ctx) error {
	eng, err := h.engine(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		WidgetType string          `json:"widget_type"`
		Data       json.RawMessage `json:"data"`
		Cursor     int             `json:"cursor"`
		// Placement is "at_cursor" (consume the trigger character) or
		// "after_line".
		Placement string `json:"placement"`
	}
	if err := c.BodyParser(&req); err != nil || req.WidgetType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "widget_type is required",
		})
	}

	cellID := c.Params("cellId")
	switch req.Placement {
	case "after_line":
		err = eng.InsertWidgetAfterLine(cellID, req.Cursor, req.WidgetType, req.Data)
	default:
		err = eng.InsertWidgetAtCursor(cellID, req.Cursor, req.WidgetType, req.Data)
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "inserted"})
}

// AddWidget appends a widget cell at the end of the document
// POST /api/sessions/:id/widgets
func (h *EditorHandler) AddWidget(c *fiber.Ctx) error {
	eng, err := h.engine(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		WidgetType string          `json:"widget_type"`
		Data       json.RawMessage `json:"data"`
	}
	if err := c.BodyParser(&req); err != nil || req.WidgetType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "widget_type is required",
		})
	}

	cellID := eng.AddWidgetCell(req.WidgetType, req.Data)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cell_id": cellID})
}

// UpdateWidgetData replaces a widget cell's payload
// PUT /api/sessions/:id/widgets/:cellId
func (h *EditorHandler) UpdateWidgetData(c *fiber.Ctx) error {
	eng, err := h.engine(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := eng.UpdateWidgetData(c.Params("cellId"), req.Data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "updated"})
}

// DeleteCell removes a cell
// DELETE /api/sessions/:id/cells/:cellId
func (h *EditorHandler) DeleteCell(c *fiber.Ctx) error {
	eng, err := h.engine(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	if err := eng.DeleteCell(c.Params("cellId")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
