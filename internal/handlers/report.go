package handlers

import (
	"github.com/gofiber/fiber/v2"

	"inkmemory/internal/models"
	"inkmemory/internal/services"
)

// ReportHandler handles aggregate report HTTP requests
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// List returns recent reports
// GET /api/reports?limit=10
func (h *ReportHandler) List(c *fiber.Ctx) error {
	reports, err := h.reportService.List(c.QueryInt("limit", 10))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load reports",
		})
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return c.JSON(fiber.Map{"reports": reports})
}

// Generate builds a report immediately
// POST /api/reports/:type
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	report, err := h.reportService.Generate(c.Context(), c.Params("type"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}
