package service

import (
	"context"
	"mime/multipart"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/engine"
)

type Media interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
}

type AuthServices interface {
	Register(ctx context.Context, req dto.RegisterUser) (*domain.User, error)
	Login(ctx context.Context, req dto.Login) (*dto.LoginResponse, error)
}

type CompanyServices interface {
	CreateCompany(ctx context.Context, req dto.CreateCompany) (*domain.Company, error)
	GetCompany(ctx context.Context, id uint64) (*domain.Company, error)
	ListCompanies(ctx context.Context, params domain.Params) (*domain.Paginated, error)
	UpdatePolicy(ctx context.Context, id uint64, req dto.UpdateCompanyPolicy) error
}

type LoanServices interface {
	Apply(ctx context.Context, borrowerID uint64, req dto.ApplyLoan) (*domain.Loan, error)
	GetLoan(ctx context.Context, id uint64) (*domain.Loan, error)
	ListLoans(ctx context.Context, params domain.Params) (*domain.Paginated, error)
	Approve(ctx context.Context, id uint64) error
	Reject(ctx context.Context, id uint64, req dto.RejectLoan) error
	Disburse(ctx context.Context, id uint64) error
	Cancel(ctx context.Context, id uint64) error
	RecordPayment(ctx context.Context, id uint64, recordedBy uint64, req dto.RecordPayment) (*domain.Loan, error)
	GetSchedule(ctx context.Context, id uint64) ([]domain.Installment, error)
	GetSummary(ctx context.Context, id uint64) (*engine.LoanSummary, error)
	AttachGuarantorDocument(ctx context.Context, id uint64, file *multipart.FileHeader) (string, error)
	// SweepArrears marks overdue installments across the repaying book and
	// applies the resulting status overrides. Returns the number of loans
	// whose state changed.
	SweepArrears(ctx context.Context) (int, error)
}

type ReportServices interface {
	Portfolio(ctx context.Context, companyID uint64) (*dto.PortfolioReport, error)
	ExportLoansCSV(ctx context.Context, companyID uint64) ([]byte, error)
}
