package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/handler"
)

// testClaims stands in for the JWT middleware so handlers see an
// authenticated lender admin.
var testClaims = &domain.JwtCustomClaims{
	UserID:    7,
	CompanyID: 2,
	Role:      domain.LenderAdminRole,
}

func setupLoanApp(h *handler.LoanHandler) *fiber.App {
	app := fiber.New()

	authMiddleware := func(c *fiber.Ctx) error {
		c.Locals("user", testClaims)
		return c.Next()
	}

	loans := app.Group("/loans", authMiddleware)
	loans.Post("/", h.Apply)
	loans.Get("/", h.ListLoans)
	loans.Get("/:loanId", h.GetLoan)
	loans.Get("/:loanId/schedule", h.GetSchedule)
	loans.Get("/:loanId/summary", h.GetSummary)
	loans.Post("/:loanId/approve", h.Approve)
	loans.Post("/:loanId/reject", h.Reject)
	loans.Post("/:loanId/cancel", h.Cancel)
	loans.Post("/:loanId/disburse", h.Disburse)
	loans.Post("/:loanId/payments", h.RecordPayment)
	loans.Post("/:loanId/guarantor-document", h.UploadGuarantorDocument)

	return app
}

func createMultipartRequest(t *testing.T, url, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, url, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func setupReportApp(h *handler.ReportHandler) *fiber.App {
	app := fiber.New()

	reports := app.Group("/reports")
	reports.Get("/portfolio", h.Portfolio)
	reports.Get("/loans.csv", h.ExportLoansCSV)

	return app
}
