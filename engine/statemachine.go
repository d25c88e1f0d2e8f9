package engine

import (
	"fmt"

	"github.com/ndalamahub/ndalamahub/domain"
)

// transitions is the single authoritative table of legal status moves.
// Workflow code never assigns a loan status directly; it calls Transition.
var transitions = map[domain.LoanStatus][]domain.LoanStatus{
	domain.LoanPendingApproval: {
		domain.LoanPendingDocuments,
		domain.LoanUnderReview,
		domain.LoanApproved,
		domain.LoanRejected,
		domain.LoanCancelled,
	},
	domain.LoanPendingDocuments: {
		domain.LoanUnderReview,
		domain.LoanRejected,
		domain.LoanCancelled,
	},
	domain.LoanUnderReview: {
		domain.LoanApproved,
		domain.LoanRejected,
		domain.LoanCancelled,
	},
	domain.LoanApproved: {
		domain.LoanPendingDisbursement,
		domain.LoanDisbursed,
		domain.LoanCancelled,
	},
	domain.LoanPendingDisbursement: {
		domain.LoanDisbursed,
		domain.LoanCancelled,
	},
	domain.LoanDisbursed: {
		domain.LoanActive,
	},
	domain.LoanActive: {
		domain.LoanInArrears,
		domain.LoanCompleted,
	},
	domain.LoanInArrears: {
		domain.LoanActive,
		domain.LoanDefaulted,
		domain.LoanCompleted,
	},
	domain.LoanDefaulted: {
		domain.LoanActive,
		domain.LoanCompleted,
	},
	// rejected, completed and cancelled are terminal.
}

// CanTransition reports whether from -> to is in the legal transition table.
func CanTransition(from, to domain.LoanStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves a loan to a new status. Rejection requires a reason.
func Transition(loan *domain.Loan, to domain.LoanStatus, reason string) error {
	if !CanTransition(loan.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, loan.Status, to)
	}
	if to == domain.LoanRejected && reason == "" {
		return fmt.Errorf("%w: rejection", ErrReasonRequired)
	}

	loan.Status = to
	if to == domain.LoanRejected {
		loan.RejectionReason = reason
	}
	return nil
}

// CheckDisbursement verifies the preconditions for releasing funds: the loan
// must be approved, carry a generated schedule, and carry guarantor details
// whenever the owning company mandates one.
func CheckDisbursement(loan *domain.Loan, requireGuarantor bool) error {
	if loan.Status != domain.LoanApproved && loan.Status != domain.LoanPendingDisbursement {
		return fmt.Errorf("%w: loan is %s, not approved", ErrDisbursementPrecondition, loan.Status)
	}
	if len(loan.Schedule) != loan.TermMonths {
		return fmt.Errorf("%w: repayment schedule has not been generated", ErrDisbursementPrecondition)
	}
	if requireGuarantor && !loan.Guarantor.Present() {
		return fmt.Errorf("%w: company policy requires a guarantor", ErrDisbursementPrecondition)
	}
	return nil
}
