package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/models"
	"inkmemory/internal/services"
)

// PreferencesHandler handles preferences HTTP requests
type PreferencesHandler struct {
	preferencesService *services.PreferencesService
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(preferencesService *services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

// Get retrieves preferences
// GET /api/preferences
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	prefs, err := h.preferencesService.Get()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load preferences",
		})
	}
	return c.JSON(prefs)
}

// Update saves preferences
// PUT /api/preferences
func (h *PreferencesHandler) Update(c *fiber.Ctx) error {
	var prefs models.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.preferencesService.Save(&prefs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "saved"})
}
