package repository

import (
	"context"

	"github.com/ndalamahub/ndalamahub/domain"
)

type CompanyRepository interface {
	CreateCompany(ctx context.Context, company *domain.Company) error
	FindByID(ctx context.Context, id uint64) (*domain.Company, error)
	FindByRegistrationNumber(ctx context.Context, regNumber string) (*domain.Company, error)
	FindPaginated(ctx context.Context, params domain.Params) ([]domain.Company, int64, error)
	UpdateCompany(ctx context.Context, company *domain.Company) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindPaginated(ctx context.Context, params domain.Params) ([]domain.User, int64, error)
}

type LoanRepository interface {
	CreateLoan(ctx context.Context, loan *domain.Loan) error
	FindByID(ctx context.Context, id uint64) (*domain.Loan, error)
	FindByIDWithLock(ctx context.Context, id uint64) (*domain.Loan, error)
	FindPaginated(ctx context.Context, params domain.Params) ([]domain.Loan, int64, error)
	// UpdateLoan persists the loan row and replaces its schedule rows.
	UpdateLoan(ctx context.Context, loan *domain.Loan) error
	// FindOpenByBorrower returns the borrower's loans that are neither
	// rejected, cancelled nor completed.
	FindOpenByBorrower(ctx context.Context, borrowerID uint64) ([]domain.Loan, error)
	// FindInRepayment returns all loans currently carrying a schedule
	// that can fall overdue.
	FindInRepayment(ctx context.Context) ([]domain.Loan, error)
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
	FindAllByCompany(ctx context.Context, companyID uint64) ([]domain.Loan, error)
	CountByStatus(ctx context.Context, companyID uint64) (map[domain.LoanStatus]int64, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	FindByReference(ctx context.Context, reference string) (*domain.Payment, error)
	FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error)
}
