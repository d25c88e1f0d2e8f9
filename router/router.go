package router

import (
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/middleware"
	"github.com/ndalamahub/ndalamahub/pkg/ratelimiter"
	"github.com/ndalamahub/ndalamahub/presenter"
)

func NewRouter(presenter presenter.Presenter, jwtSecret string, limiter *ratelimiter.RateLimiter, otel *middleware.OtelMiddleware) *fiber.App {

	// --- Middlewares ---
	auth := middleware.NewJWTAuthMiddleware(jwtSecret)
	lenderStaff := middleware.RequireRole(domain.SuperUserRole, domain.LenderAdminRole)
	anyStaff := middleware.RequireRole(domain.SuperUserRole, domain.LenderAdminRole, domain.HROfficerRole)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New())
	app.Use(otelfiber.Middleware())
	app.Use(otel.Handle())
	app.Use(limiter.RateLimitMiddleware())

	api := app.Group("/api/v1")

	authAPI := api.Group("/auth")
	{
		authAPI.Post("/login", presenter.AuthPresenter.Login)
		authAPI.Post("/register", auth, lenderStaff, presenter.AuthPresenter.Register)
	}

	companiesAPI := api.Group("/companies", auth, lenderStaff)
	{
		companiesAPI.Post("/", presenter.CompanyPresenter.CreateCompany)
		companiesAPI.Get("/", presenter.CompanyPresenter.ListCompanies)
		companiesAPI.Get("/:companyId", presenter.CompanyPresenter.GetCompany)
		companiesAPI.Put("/:companyId/policy", presenter.CompanyPresenter.UpdatePolicy)
	}

	loansAPI := api.Group("/loans", auth)
	{
		loansAPI.Post("/", presenter.LoanPresenter.Apply)
		loansAPI.Get("/", anyStaff, presenter.LoanPresenter.ListLoans)
		loansAPI.Get("/:loanId", presenter.LoanPresenter.GetLoan)
		loansAPI.Get("/:loanId/schedule", presenter.LoanPresenter.GetSchedule)
		loansAPI.Get("/:loanId/summary", presenter.LoanPresenter.GetSummary)

		loansAPI.Post("/:loanId/approve", lenderStaff, presenter.LoanPresenter.Approve)
		loansAPI.Post("/:loanId/reject", lenderStaff, presenter.LoanPresenter.Reject)
		loansAPI.Post("/:loanId/cancel", presenter.LoanPresenter.Cancel)
		loansAPI.Post("/:loanId/disburse", lenderStaff, presenter.LoanPresenter.Disburse)
		loansAPI.Post("/:loanId/payments", anyStaff, presenter.LoanPresenter.RecordPayment)
		loansAPI.Post("/:loanId/guarantor-document", presenter.LoanPresenter.UploadGuarantorDocument)
	}

	reportsAPI := api.Group("/reports", auth, lenderStaff)
	{
		reportsAPI.Get("/portfolio", presenter.ReportPresenter.Portfolio)
		reportsAPI.Get("/loans.csv", presenter.ReportPresenter.ExportLoansCSV)
	}

	return app
}
