package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ndalamahub/ndalamahub/service"
)

type ReportHandler struct {
	reportService service.ReportServices
}

func (h *ReportHandler) Portfolio(c *fiber.Ctx) error {
	companyID := uint64(c.QueryInt("company_id", 0))

	report, err := h.reportService.Portfolio(c.Context(), companyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(report)
}

func (h *ReportHandler) ExportLoansCSV(c *fiber.Ctx) error {
	companyID := uint64(c.QueryInt("company_id", 0))

	payload, err := h.reportService.ExportLoansCSV(c.Context(), companyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="loans.csv"`)
	return c.Status(fiber.StatusOK).Send(payload)
}

func NewReportHandler(reportService service.ReportServices) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}
