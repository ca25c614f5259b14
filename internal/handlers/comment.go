package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/services"
)

// CommentHandler handles voice comment HTTP requests
type CommentHandler struct {
	sessionService *services.SessionService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(sessionService *services.SessionService) *CommentHandler {
	return &CommentHandler{sessionService: sessionService}
}

// Get returns a single comment with its chat history
// GET /api/sessions/:id/comments/:commentId
func (h *CommentHandler) Get(c *fiber.Ctx) error {
	eng, err := h.sessionService.GetEngine(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	comment, err := eng.GetComment(c.Params("commentId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}
	return c.JSON(comment)
}

// Chat runs one conversation turn with the voice behind a comment
// POST /api/sessions/:id/comments/:commentId/chat
func (h *CommentHandler) Chat(c *fiber.Ctx) error {
	eng, err := h.sessionService.GetEngine(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	reply, err := eng.Chat(c.Context(), c.Params("commentId"), req.Message)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"response": reply})
}

// Feedback marks a comment as starred or killed
// POST /api/sessions/:id/comments/:commentId/feedback
func (h *CommentHandler) Feedback(c *fiber.Ctx) error {
	eng, err := h.sessionService.GetEngine(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := eng.SetCommentFeedback(c.Params("commentId"), req.Feedback); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "recorded"})
}
