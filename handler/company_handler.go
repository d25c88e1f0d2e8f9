package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/service"
)

type CompanyHandler struct {
	companyService service.CompanyServices
	validate       *validator.Validate
}

func (h *CompanyHandler) CreateCompany(c *fiber.Ctx) error {
	var req dto.CreateCompany
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	company, err := h.companyService.CreateCompany(c.Context(), req)
	if err != nil {
		if errors.Is(err, common.ErrCompanyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(company)
}

func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	companyID, err := strconv.ParseUint(c.Params("companyId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid company ID"})
	}

	company, err := h.companyService.GetCompany(c.Context(), companyID)
	if err != nil {
		if errors.Is(err, common.ErrCompanyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(company)
}

func (h *CompanyHandler) ListCompanies(c *fiber.Ctx) error {
	params := domain.Params{
		Status: c.Query("type"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	res, err := h.companyService.ListCompanies(c.Context(), params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *CompanyHandler) UpdatePolicy(c *fiber.Ctx) error {
	companyID, err := strconv.ParseUint(c.Params("companyId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid company ID"})
	}

	var req dto.UpdateCompanyPolicy
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	if err := h.companyService.UpdatePolicy(c.Context(), companyID, req); err != nil {
		if errors.Is(err, common.ErrCompanyNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "An internal server error occurred"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Company policy updated successfully"})
}

func NewCompanyHandler(companyService service.CompanyServices) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}
