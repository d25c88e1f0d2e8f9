package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/engine"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/repository"
	"github.com/ndalamahub/ndalamahub/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// disbursedTestLoan walks a fresh application through approval and
// disbursement so payment tests start from an active loan.
func disbursedTestLoan(t *testing.T, svc service.LoanServices, borrowerID uint64) *domain.Loan {
	t.Helper()
	ctx := context.Background()

	loan, err := svc.Apply(ctx, borrowerID, dto.ApplyLoan{
		Principal:  12000,
		TermMonths: 6,
		Purpose:    "Working capital",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, loan.ID))
	require.NoError(t, svc.Disburse(ctx, loan.ID))

	loan, err = svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	return loan
}

func backdateInstallment(t *testing.T, db *gorm.DB, loanID uint64, number, days int) {
	t.Helper()
	due := time.Now().AddDate(0, 0, -days)
	err := db.Exec(
		"UPDATE loan_installments SET due_date = ? WHERE loan_id = ? AND number = ?",
		due, loanID, number,
	).Error
	require.NoError(t, err)
}

func TestApplyLoan(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, false)
	borrower := seedBorrower(t, db, employer.ID)
	svc := newLoanService(db, &mockMedia{})

	t.Run("Success - Application Created", func(t *testing.T) {
		loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  10000,
			TermMonths: 6,
			Purpose:    "School fees",
		})

		assert.NoError(t, err)
		assert.NotZero(t, loan.ID)
		assert.Equal(t, fmt.Sprintf("LN%d0001", time.Now().Year()), loan.LoanNumber)
		assert.Equal(t, domain.LoanPendingApproval, loan.Status)
		assert.True(t, loan.AnnualRatePercent.Equal(employer.InterestRate))
		assert.True(t, loan.PeriodicPayment.IsPositive())
		assert.True(t, loan.TotalPayable.Equal(loan.Principal.Add(loan.TotalInterest)))
		assert.Len(t, loan.Schedule, 6)

		principalSum := decimal.Zero
		for _, inst := range loan.Schedule {
			principalSum = principalSum.Add(inst.PrincipalComponent)
			assert.Equal(t, domain.InstallmentPending, inst.Status)
		}
		assert.True(t, principalSum.Equal(loan.Principal),
			"schedule principal %s vs %s", principalSum, loan.Principal)
	})

	t.Run("Failure - Active Loan Exists", func(t *testing.T) {
		_, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  5000,
			TermMonths: 3,
			Purpose:    "Medical bills",
		})
		assert.ErrorIs(t, err, common.ErrActiveLoanExists)
	})

	t.Run("Success - Sequential Loan Numbers", func(t *testing.T) {
		second := seedBorrower(t, db, employer.ID)
		loan, err := svc.Apply(ctx, second.ID, dto.ApplyLoan{
			Principal:  8000,
			TermMonths: 4,
			Purpose:    "Home repairs",
		})
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("LN%d0002", time.Now().Year()), loan.LoanNumber)
	})

	t.Run("Failure - Borrower Not Found", func(t *testing.T) {
		_, err := svc.Apply(ctx, 9999, dto.ApplyLoan{
			Principal:  5000,
			TermMonths: 3,
			Purpose:    "Medical bills",
		})
		assert.ErrorIs(t, err, common.ErrUserNotFound)
	})

	t.Run("Failure - Loan Limit Exceeded", func(t *testing.T) {
		third := seedBorrower(t, db, employer.ID)
		_, err := svc.Apply(ctx, third.ID, dto.ApplyLoan{
			Principal:  60000,
			TermMonths: 12,
			Purpose:    "Vehicle purchase",
		})
		assert.ErrorIs(t, err, common.ErrLoanLimitExceeded)
	})
}

func TestApproveLoan(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)
	svc := newLoanService(db, &mockMedia{})

	loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
		Principal:  10000,
		TermMonths: 6,
		Purpose:    "School fees",
	})
	require.NoError(t, err)

	t.Run("Success - Approved", func(t *testing.T) {
		assert.NoError(t, svc.Approve(ctx, loan.ID))

		approved, err := svc.GetLoan(ctx, loan.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanApproved, approved.Status)
		assert.NotNil(t, approved.ApprovedAt)
	})

	t.Run("Failure - Already Approved", func(t *testing.T) {
		assert.ErrorIs(t, svc.Approve(ctx, loan.ID), engine.ErrIllegalTransition)
	})

	t.Run("Failure - Loan Not Found", func(t *testing.T) {
		assert.ErrorIs(t, svc.Approve(ctx, 9999), common.ErrLoanNotFound)
	})
}

func TestRejectLoan(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)
	svc := newLoanService(db, &mockMedia{})

	loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
		Principal:  10000,
		TermMonths: 6,
		Purpose:    "School fees",
	})
	require.NoError(t, err)

	t.Run("Failure - Reason Required", func(t *testing.T) {
		assert.ErrorIs(t, svc.Reject(ctx, loan.ID, dto.RejectLoan{}), engine.ErrReasonRequired)
	})

	t.Run("Success - Rejected With Reason", func(t *testing.T) {
		assert.NoError(t, svc.Reject(ctx, loan.ID, dto.RejectLoan{Reason: "Insufficient tenure"}))

		rejected, err := svc.GetLoan(ctx, loan.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanRejected, rejected.Status)
		assert.Equal(t, "Insufficient tenure", rejected.RejectionReason)
	})

	t.Run("Failure - Rejected Is Terminal", func(t *testing.T) {
		assert.ErrorIs(t, svc.Approve(ctx, loan.ID), engine.ErrIllegalTransition)
	})
}

func TestCancelLoan(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)
	svc := newLoanService(db, &mockMedia{})

	t.Run("Success - Cancelled Before Disbursement", func(t *testing.T) {
		loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  10000,
			TermMonths: 6,
			Purpose:    "School fees",
		})
		require.NoError(t, err)

		assert.NoError(t, svc.Cancel(ctx, loan.ID))

		cancelled, err := svc.GetLoan(ctx, loan.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanCancelled, cancelled.Status)
	})

	t.Run("Failure - Active Loan Cannot Be Cancelled", func(t *testing.T) {
		loan := disbursedTestLoan(t, svc, borrower.ID)
		assert.ErrorIs(t, svc.Cancel(ctx, loan.ID), engine.ErrIllegalTransition)
	})
}

func TestDisburseLoan(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)
	svc := newLoanService(db, &mockMedia{})

	t.Run("Failure - Not Approved", func(t *testing.T) {
		loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  10000,
			TermMonths: 6,
			Purpose:    "School fees",
		})
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Disburse(ctx, loan.ID), engine.ErrDisbursementPrecondition)
	})

	t.Run("Success - Disbursed And Schedule Rebased", func(t *testing.T) {
		loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  10000,
			TermMonths: 6,
			Purpose:    "School fees",
		})
		require.NoError(t, err)
		require.NoError(t, svc.Approve(ctx, loan.ID))

		assert.NoError(t, svc.Disburse(ctx, loan.ID))

		disbursed, err := svc.GetLoan(ctx, loan.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanActive, disbursed.Status)
		assert.NotNil(t, disbursed.DisbursedAt)
		assert.True(t, disbursed.Locked())
		assert.Len(t, disbursed.Schedule, 6)

		// Due dates run in 30-day periods from disbursement, not application.
		firstDue := disbursed.DisbursedAt.AddDate(0, 0, 30)
		assert.WithinDuration(t, firstDue, disbursed.Schedule[0].DueDate, time.Minute)

		t.Run("Failure - Already Disbursed", func(t *testing.T) {
			assert.ErrorIs(t, svc.Disburse(ctx, loan.ID), engine.ErrDisbursementPrecondition)
		})
	})
}

func TestDisburseGuarantorPolicy(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, true, true)
	borrower := seedBorrower(t, db, employer.ID)
	svc := newLoanService(db, &mockMedia{})

	t.Run("Failure - Guarantor Required", func(t *testing.T) {
		loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  10000,
			TermMonths: 6,
			Purpose:    "School fees",
		})
		require.NoError(t, err)
		require.NoError(t, svc.Approve(ctx, loan.ID))

		assert.ErrorIs(t, svc.Disburse(ctx, loan.ID), engine.ErrDisbursementPrecondition)
	})

	t.Run("Success - Guarantor Provided", func(t *testing.T) {
		loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:           10000,
			TermMonths:          6,
			Purpose:             "School fees",
			GuarantorName:       "Chanda Phiri",
			GuarantorPhone:      "+260977123456",
			GuarantorNationalID: "123456/78/9",
		})
		require.NoError(t, err)
		require.NoError(t, svc.Approve(ctx, loan.ID))

		assert.NoError(t, svc.Disburse(ctx, loan.ID))
	})
}

func TestRecordPayment(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)
	staff := seedBorrower(t, db, lender.ID)
	svc := newLoanService(db, &mockMedia{})

	loan := disbursedTestLoan(t, svc, borrower.ID)
	firstDue := loan.Schedule[0].AmountDue

	t.Run("Success - Full Installment", func(t *testing.T) {
		updated, err := svc.RecordPayment(ctx, loan.ID, staff.ID, dto.RecordPayment{
			InstallmentNumber: 1,
			Amount:            firstDue.InexactFloat64(),
			Reference:         "PAY-001",
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.InstallmentPaid, updated.Schedule[0].Status)
		assert.True(t, updated.Summary.TotalPaid.Equal(firstDue))
		assert.NotNil(t, updated.Summary.LastPaymentDate)
		assert.Equal(t, domain.LoanActive, updated.Status)

		payments, err := repository.NewPaymentRepository(db).FindByLoanID(ctx, loan.ID)
		assert.NoError(t, err)
		assert.Len(t, payments, 1)
		assert.Equal(t, "PAY-001", payments[0].Reference)
		assert.Equal(t, staff.ID, payments[0].RecordedBy)
	})

	t.Run("Failure - Duplicate Reference", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, loan.ID, staff.ID, dto.RecordPayment{
			InstallmentNumber: 2,
			Amount:            100,
			Reference:         "PAY-001",
		})
		assert.ErrorIs(t, err, common.ErrDuplicatePayment)
	})

	t.Run("Success - Partial Payment", func(t *testing.T) {
		updated, err := svc.RecordPayment(ctx, loan.ID, staff.ID, dto.RecordPayment{
			InstallmentNumber: 2,
			Amount:            100,
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.InstallmentPartial, updated.Schedule[1].Status)
		assert.True(t, updated.Summary.TotalPaid.Equal(firstDue.Add(decimal.NewFromInt(100))))
	})

	t.Run("Failure - Unknown Installment", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, loan.ID, staff.ID, dto.RecordPayment{
			InstallmentNumber: 99,
			Amount:            100,
		})
		assert.ErrorIs(t, err, engine.ErrInstallmentNotFound)
	})

	t.Run("Failure - Loan Not Found", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, 9999, staff.ID, dto.RecordPayment{
			InstallmentNumber: 1,
			Amount:            100,
		})
		assert.ErrorIs(t, err, common.ErrLoanNotFound)
	})

	t.Run("Failure - Not In Repayment", func(t *testing.T) {
		pending, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
			Principal:  5000,
			TermMonths: 3,
			Purpose:    "Medical bills",
		})
		require.NoError(t, err)

		_, err = svc.RecordPayment(ctx, pending.ID, staff.ID, dto.RecordPayment{
			InstallmentNumber: 1,
			Amount:            100,
		})
		assert.ErrorIs(t, err, engine.ErrLoanNotInRepayment)
	})

	t.Run("Success - Paying Every Installment Completes The Loan", func(t *testing.T) {
		target := disbursedTestLoan(t, svc, borrower.ID)

		var final *domain.Loan
		for _, inst := range target.Schedule {
			var err error
			final, err = svc.RecordPayment(ctx, target.ID, staff.ID, dto.RecordPayment{
				InstallmentNumber: inst.Number,
				Amount:            inst.AmountDue.InexactFloat64(),
			})
			require.NoError(t, err)
		}

		assert.Equal(t, domain.LoanCompleted, final.Status)

		summary, err := svc.GetSummary(ctx, target.ID)
		assert.NoError(t, err)
		assert.True(t, summary.RemainingBalance.LessThanOrEqual(decimal.New(1, -2)),
			"remaining %s", summary.RemainingBalance)
		assert.Nil(t, summary.NextPendingInstallment)
	})
}

func TestSweepArrears(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)
	staff := seedBorrower(t, db, lender.ID)
	svc := newLoanService(db, &mockMedia{})

	overdue := disbursedTestLoan(t, svc, borrower.ID)
	current := disbursedTestLoan(t, svc, borrower.ID)
	backdateInstallment(t, db, overdue.ID, 1, 10)

	t.Run("Success - Overdue Loan Flagged In Arrears", func(t *testing.T) {
		changed, err := svc.SweepArrears(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, changed)

		swept, err := svc.GetLoan(ctx, overdue.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanInArrears, swept.Status)
		assert.Equal(t, domain.InstallmentOverdue, swept.Schedule[0].Status)
		assert.GreaterOrEqual(t, swept.Summary.DaysInArrears, 10)
		assert.Equal(t, 1, swept.Summary.MissedPaymentsCount)

		untouched, err := svc.GetLoan(ctx, current.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanActive, untouched.Status)
		assert.Zero(t, untouched.Summary.DaysInArrears)
	})

	t.Run("Success - Second Sweep Is Idempotent", func(t *testing.T) {
		changed, err := svc.SweepArrears(ctx)
		assert.NoError(t, err)
		assert.Zero(t, changed)
	})

	t.Run("Success - Payment Cures Arrears", func(t *testing.T) {
		cured, err := svc.RecordPayment(ctx, overdue.ID, staff.ID, dto.RecordPayment{
			InstallmentNumber: 1,
			Amount:            overdue.Schedule[0].AmountDue.InexactFloat64(),
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanActive, cured.Status)
		assert.Zero(t, cured.Summary.DaysInArrears)
		assert.Zero(t, cured.Summary.MissedPaymentsCount)
	})

	t.Run("Success - Long Overdue Loan Defaults", func(t *testing.T) {
		defaulting := disbursedTestLoan(t, svc, borrower.ID)
		backdateInstallment(t, db, defaulting.ID, 1, 120)

		changed, err := svc.SweepArrears(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 1, changed)

		swept, err := svc.GetLoan(ctx, defaulting.ID)
		assert.NoError(t, err)
		assert.Equal(t, domain.LoanDefaulted, swept.Status)
		assert.GreaterOrEqual(t, swept.Summary.DaysInArrears, 120)
	})
}

func TestAttachGuarantorDocument(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, true)
	borrower := seedBorrower(t, db, employer.ID)

	media := &mockMedia{MockUploadURL: "https://cdn.example.com/docs/guarantor.pdf"}
	svc := newLoanService(db, media)

	loan, err := svc.Apply(ctx, borrower.ID, dto.ApplyLoan{
		Principal:  10000,
		TermMonths: 6,
		Purpose:    "School fees",
	})
	require.NoError(t, err)

	t.Run("Success - Document Attached", func(t *testing.T) {
		url, err := svc.AttachGuarantorDocument(ctx, loan.ID, nil)
		assert.NoError(t, err)
		assert.Equal(t, media.MockUploadURL, url)

		updated, err := svc.GetLoan(ctx, loan.ID)
		assert.NoError(t, err)
		assert.Equal(t, media.MockUploadURL, updated.Guarantor.DocumentURL)
	})

	t.Run("Failure - Loan Not Found", func(t *testing.T) {
		_, err := svc.AttachGuarantorDocument(ctx, 9999, nil)
		assert.ErrorIs(t, err, common.ErrLoanNotFound)
	})
}
