package service_test

import (
	"context"
	"mime/multipart"

	"github.com/ndalamahub/ndalamahub/domain"
)

type mockLoanRepository struct {
	// Fields to control mock behavior
	MockFindPaginatedData    []domain.Loan
	MockFindPaginatedTotal   int64
	MockFindByIDData         *domain.Loan
	MockFindAllByCompanyData []domain.Loan
	MockCountByStatusData    map[domain.LoanStatus]int64
	MockFindInRepaymentData  []domain.Loan
	MockError                error

	// Fields to capture calls
	FindPaginatedCalledWith    domain.Params
	FindByIDCalledWith         uint64
	FindAllByCompanyCalledWith uint64
	CountByStatusCalledWith    uint64
	UpdateLoanCalledWith       *domain.Loan
}

func (m *mockLoanRepository) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	return m.MockError
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	m.FindByIDCalledWith = id
	if m.MockFindByIDData != nil && m.MockFindByIDData.ID == id {
		return m.MockFindByIDData, m.MockError
	}

	if m.MockError != nil {
		return nil, m.MockError
	}
	return nil, nil
}

func (m *mockLoanRepository) FindByIDWithLock(ctx context.Context, id uint64) (*domain.Loan, error) {
	return m.FindByID(ctx, id)
}

func (m *mockLoanRepository) FindPaginated(ctx context.Context, params domain.Params) ([]domain.Loan, int64, error) {
	m.FindPaginatedCalledWith = params
	return m.MockFindPaginatedData, m.MockFindPaginatedTotal, m.MockError
}

func (m *mockLoanRepository) UpdateLoan(ctx context.Context, loan *domain.Loan) error {
	m.UpdateLoanCalledWith = loan
	return m.MockError
}

func (m *mockLoanRepository) FindOpenByBorrower(ctx context.Context, borrowerID uint64) ([]domain.Loan, error) {
	return nil, m.MockError
}

func (m *mockLoanRepository) FindInRepayment(ctx context.Context) ([]domain.Loan, error) {
	return m.MockFindInRepaymentData, m.MockError
}

func (m *mockLoanRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	return 0, m.MockError
}

func (m *mockLoanRepository) FindAllByCompany(ctx context.Context, companyID uint64) ([]domain.Loan, error) {
	m.FindAllByCompanyCalledWith = companyID
	return m.MockFindAllByCompanyData, m.MockError
}

func (m *mockLoanRepository) CountByStatus(ctx context.Context, companyID uint64) (map[domain.LoanStatus]int64, error) {
	m.CountByStatusCalledWith = companyID
	return m.MockCountByStatusData, m.MockError
}

type mockMedia struct {
	MockUploadURL   string
	MockUploadError error

	UploadCalledWith *multipart.FileHeader
}

func (m *mockMedia) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	m.UploadCalledWith = file
	return m.MockUploadURL, m.MockUploadError
}
