package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/services"
)

// PersonaHandler serves the voice persona roster
type PersonaHandler struct {
	personaService *services.PersonaService
}

// NewPersonaHandler creates a new persona handler
func NewPersonaHandler(personaService *services.PersonaService) *PersonaHandler {
	return &PersonaHandler{personaService: personaService}
}

// List returns the current roster
// GET /api/personas
func (h *PersonaHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"personas": h.personaService.List()})
}

// Get returns a single persona
// GET /api/personas/:id
func (h *PersonaHandler) Get(c *fiber.Ctx) error {
	persona, ok := h.personaService.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Persona not found",
		})
	}
	return c.JSON(persona)
}
