package engine_test

import (
	"testing"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/engine"
	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	t.Run("approval path", func(t *testing.T) {
		loan := &domain.Loan{Status: domain.LoanPendingApproval}
		assert.NoError(t, engine.Transition(loan, domain.LoanUnderReview, ""))
		assert.NoError(t, engine.Transition(loan, domain.LoanApproved, ""))
		assert.Equal(t, domain.LoanApproved, loan.Status)
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		loan := &domain.Loan{Status: domain.LoanPendingApproval}
		err := engine.Transition(loan, domain.LoanRejected, "")
		assert.ErrorIs(t, err, engine.ErrReasonRequired)
		assert.Equal(t, domain.LoanPendingApproval, loan.Status)

		assert.NoError(t, engine.Transition(loan, domain.LoanRejected, "incomplete payslips"))
		assert.Equal(t, "incomplete payslips", loan.RejectionReason)
	})

	t.Run("terminal states admit nothing", func(t *testing.T) {
		for _, terminal := range []domain.LoanStatus{domain.LoanRejected, domain.LoanCompleted, domain.LoanCancelled} {
			loan := &domain.Loan{Status: terminal}
			err := engine.Transition(loan, domain.LoanActive, "")
			assert.ErrorIs(t, err, engine.ErrIllegalTransition, "from %s", terminal)
		}
	})

	t.Run("off-table transitions rejected", func(t *testing.T) {
		cases := []struct{ from, to domain.LoanStatus }{
			{domain.LoanPendingApproval, domain.LoanDisbursed},
			{domain.LoanPendingApproval, domain.LoanActive},
			{domain.LoanApproved, domain.LoanActive},
			{domain.LoanActive, domain.LoanDefaulted}, // must pass through in_arrears
			{domain.LoanActive, domain.LoanApproved},
			{domain.LoanDisbursed, domain.LoanInArrears},
		}
		for _, tc := range cases {
			loan := &domain.Loan{Status: tc.from}
			err := engine.Transition(loan, tc.to, "")
			assert.ErrorIs(t, err, engine.ErrIllegalTransition, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.from, loan.Status, "status must not change on a refused transition")
		}
	})

	t.Run("arrears cycle", func(t *testing.T) {
		loan := &domain.Loan{Status: domain.LoanActive}
		assert.NoError(t, engine.Transition(loan, domain.LoanInArrears, ""))
		assert.NoError(t, engine.Transition(loan, domain.LoanActive, ""))
		assert.NoError(t, engine.Transition(loan, domain.LoanInArrears, ""))
		assert.NoError(t, engine.Transition(loan, domain.LoanDefaulted, ""))
		assert.NoError(t, engine.Transition(loan, domain.LoanCompleted, ""))
	})
}

func TestCheckDisbursement(t *testing.T) {
	t.Run("approved loan with schedule passes", func(t *testing.T) {
		loan := buildTestLoan(t, "12000", "15", 12)
		loan.Status = domain.LoanApproved
		assert.NoError(t, engine.CheckDisbursement(loan, false))
	})

	t.Run("unapproved loan fails", func(t *testing.T) {
		loan := buildTestLoan(t, "12000", "15", 12)
		assert.ErrorIs(t, engine.CheckDisbursement(loan, false), engine.ErrDisbursementPrecondition)
	})

	t.Run("missing schedule fails", func(t *testing.T) {
		loan := &domain.Loan{Status: domain.LoanApproved, TermMonths: 12}
		assert.ErrorIs(t, engine.CheckDisbursement(loan, false), engine.ErrDisbursementPrecondition)
	})

	t.Run("guarantor mandate enforced", func(t *testing.T) {
		loan := buildTestLoan(t, "12000", "15", 12)
		loan.Status = domain.LoanApproved
		assert.ErrorIs(t, engine.CheckDisbursement(loan, true), engine.ErrDisbursementPrecondition)

		loan.Guarantor = domain.Guarantor{Name: "T. Phiri", NationalID: "63-123456A12"}
		assert.NoError(t, engine.CheckDisbursement(loan, true))
	})
}
