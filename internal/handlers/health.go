package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	sessionService *services.SessionService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessionService *services.SessionService) *HealthHandler {
	return &HealthHandler{sessionService: sessionService}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"sessions":  h.sessionService.EngineCount(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
