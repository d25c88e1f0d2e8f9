package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/engine"
	"github.com/ndalamahub/ndalamahub/middleware"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/service"
)

type LoanHandler struct {
	loanService service.LoanServices
	validate    *validator.Validate
}

func parseLoanID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("loanId"), 10, 64)
}

// loanErrorStatus maps service and engine errors to HTTP status codes.
func loanErrorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrLoanNotFound),
		errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrCompanyNotFound),
		errors.Is(err, engine.ErrInstallmentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrDuplicatePayment),
		errors.Is(err, engine.ErrIllegalTransition),
		errors.Is(err, engine.ErrScheduleLocked),
		errors.Is(err, engine.ErrLoanNotInRepayment),
		errors.Is(err, engine.ErrDisbursementPrecondition):
		return fiber.StatusConflict
	case errors.Is(err, common.ErrLoanLimitExceeded),
		errors.Is(err, common.ErrActiveLoanExists):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidLoanParameters),
		errors.Is(err, engine.ErrInvalidPaymentAmount),
		errors.Is(err, engine.ErrOverpaymentNotAllowed),
		errors.Is(err, engine.ErrReasonRequired):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	claims, err := middleware.GetClaimsFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req dto.ApplyLoan
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	loan, err := h.loanService.Apply(c.Context(), claims.UserID, req)
	if err != nil {
		status := loanErrorStatus(err)
		if status == fiber.StatusInternalServerError {
			return c.Status(status).JSON(fiber.Map{"error": "An internal server error occurred"})
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(loan)
}

func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	loan, err := h.loanService.GetLoan(c.Context(), loanID)
	if err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(loan)
}

func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	params := domain.Params{
		Status:    c.Query("status"),
		CompanyID: uint64(c.QueryInt("company_id", 0)),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 10),
	}

	res, err := h.loanService.ListLoans(c.Context(), params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	if err := h.loanService.Approve(c.Context(), loanID); err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Loan approved"})
}

func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	var req dto.RejectLoan
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	if err := h.loanService.Reject(c.Context(), loanID, req); err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Loan rejected"})
}

func (h *LoanHandler) Cancel(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	if err := h.loanService.Cancel(c.Context(), loanID); err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Loan cancelled"})
}

func (h *LoanHandler) Disburse(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	if err := h.loanService.Disburse(c.Context(), loanID); err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Loan disbursed"})
}

func (h *LoanHandler) RecordPayment(c *fiber.Ctx) error {
	claims, err := middleware.GetClaimsFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	var req dto.RecordPayment
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	loan, err := h.loanService.RecordPayment(c.Context(), loanID, claims.UserID, req)
	if err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(loan)
}

func (h *LoanHandler) GetSchedule(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	schedule, err := h.loanService.GetSchedule(c.Context(), loanID)
	if err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(schedule)
}

func (h *LoanHandler) GetSummary(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	summary, err := h.loanService.GetSummary(c.Context(), loanID)
	if err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *LoanHandler) UploadGuarantorDocument(c *fiber.Ctx) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid loan ID"})
	}

	file, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing document file"})
	}

	url, err := h.loanService.AttachGuarantorDocument(c.Context(), loanID, file)
	if err != nil {
		return c.Status(loanErrorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"document_url": url})
}

func NewLoanHandler(loanService service.LoanServices) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}
