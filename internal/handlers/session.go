package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/models"
	"inkmemory/internal/services"
)

// SessionHandler handles session lifecycle HTTP requests
type SessionHandler struct {
	sessionService *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create starts a new session
// POST /api/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	// Body is optional; an empty POST creates an unnamed session.
	_ = c.BodyParser(&req)

	sess, err := h.sessionService.CreateSession(req.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// List returns summaries of all sessions
// GET /api/sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.sessionService.ListSessions()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sessions",
		})
	}
	if sessions == nil {
		sessions = []models.SessionSummary{}
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// Get returns a session with its full editor state
// GET /api/sessions/:id
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sess, err := h.sessionService.GetSession(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(sess)
}

// Rename updates a session's display name
// PUT /api/sessions/:id
func (h *SessionHandler) Rename(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	if err := h.sessionService.RenameSession(c.Params("id"), req.Name); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}
	return c.JSON(fiber.Map{"status": "renamed"})
}

// Delete removes a session
// DELETE /api/sessions/:id
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.sessionService.DeleteSession(c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete session",
		})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
