package handler_test

import (
	"context"
	"mime/multipart"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/engine"
)

type mockLoanService struct {
	MockApplyResult         *domain.Loan
	MockGetLoanResult       *domain.Loan
	MockListResult          *domain.Paginated
	MockRecordPaymentResult *domain.Loan
	MockScheduleResult      []domain.Installment
	MockSummaryResult       *engine.LoanSummary
	MockAttachURL           string
	MockSweepChanged        int
	MockError               error

	ApplyCalledWithBorrower   uint64
	ApplyCalledWithReq        dto.ApplyLoan
	GetLoanCalledWithID       uint64
	ApproveCalledWithID       uint64
	RejectCalledWithID        uint64
	RejectCalledWithReq       dto.RejectLoan
	DisburseCalledWithID      uint64
	CancelCalledWithID        uint64
	PaymentCalledWithID       uint64
	PaymentCalledWithRecorder uint64
	PaymentCalledWithReq      dto.RecordPayment
	AttachCalledWithID        uint64
	AttachCalledWithFile      *multipart.FileHeader
}

func (m *mockLoanService) Apply(ctx context.Context, borrowerID uint64, req dto.ApplyLoan) (*domain.Loan, error) {
	m.ApplyCalledWithBorrower = borrowerID
	m.ApplyCalledWithReq = req
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockApplyResult, nil
}

func (m *mockLoanService) GetLoan(ctx context.Context, id uint64) (*domain.Loan, error) {
	m.GetLoanCalledWithID = id
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockGetLoanResult, nil
}

func (m *mockLoanService) ListLoans(ctx context.Context, params domain.Params) (*domain.Paginated, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockListResult, nil
}

func (m *mockLoanService) Approve(ctx context.Context, id uint64) error {
	m.ApproveCalledWithID = id
	return m.MockError
}

func (m *mockLoanService) Reject(ctx context.Context, id uint64, req dto.RejectLoan) error {
	m.RejectCalledWithID = id
	m.RejectCalledWithReq = req
	return m.MockError
}

func (m *mockLoanService) Disburse(ctx context.Context, id uint64) error {
	m.DisburseCalledWithID = id
	return m.MockError
}

func (m *mockLoanService) Cancel(ctx context.Context, id uint64) error {
	m.CancelCalledWithID = id
	return m.MockError
}

func (m *mockLoanService) RecordPayment(ctx context.Context, id uint64, recordedBy uint64, req dto.RecordPayment) (*domain.Loan, error) {
	m.PaymentCalledWithID = id
	m.PaymentCalledWithRecorder = recordedBy
	m.PaymentCalledWithReq = req
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockRecordPaymentResult, nil
}

func (m *mockLoanService) GetSchedule(ctx context.Context, id uint64) ([]domain.Installment, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockScheduleResult, nil
}

func (m *mockLoanService) GetSummary(ctx context.Context, id uint64) (*engine.LoanSummary, error) {
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockSummaryResult, nil
}

func (m *mockLoanService) AttachGuarantorDocument(ctx context.Context, id uint64, file *multipart.FileHeader) (string, error) {
	m.AttachCalledWithID = id
	m.AttachCalledWithFile = file
	if m.MockError != nil {
		return "", m.MockError
	}
	return m.MockAttachURL, nil
}

func (m *mockLoanService) SweepArrears(ctx context.Context) (int, error) {
	if m.MockError != nil {
		return 0, m.MockError
	}
	return m.MockSweepChanged, nil
}

type mockReportService struct {
	MockPortfolioResult *dto.PortfolioReport
	MockCSV             []byte
	MockError           error

	PortfolioCalledWithCompany uint64
	ExportCalledWithCompany    uint64
}

func (m *mockReportService) Portfolio(ctx context.Context, companyID uint64) (*dto.PortfolioReport, error) {
	m.PortfolioCalledWithCompany = companyID
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockPortfolioResult, nil
}

func (m *mockReportService) ExportLoansCSV(ctx context.Context, companyID uint64) ([]byte, error) {
	m.ExportCalledWithCompany = companyID
	if m.MockError != nil {
		return nil, m.MockError
	}
	return m.MockCSV, nil
}
