package engine

import (
	"fmt"
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/shopspring/decimal"
)

// OverpaymentPolicy decides what happens when a payment pushes an
// installment's paid amount past its amount due.
type OverpaymentPolicy int

const (
	// OverpaymentAllow keeps the excess on the named installment. This is
	// how existing records behave, so it is the default.
	OverpaymentAllow OverpaymentPolicy = iota
	// OverpaymentReject fails the payment outright.
	OverpaymentReject
	// OverpaymentCarryForward rolls the excess onto the next unpaid
	// installment, and keeps rolling while excess remains.
	OverpaymentCarryForward
)

// ApplyPayment records a payment against one installment and recomputes the
// loan-level aggregates. Installment statuses only move forward: a paid
// installment never reverts, an overdue one moves to partial or paid.
func ApplyPayment(loan *domain.Loan, installmentNumber int, amount decimal.Decimal, at time.Time, policy OverpaymentPolicy) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidPaymentAmount, amount)
	}
	if !repaying(loan.Status) {
		return fmt.Errorf("%w: status %s", ErrLoanNotInRepayment, loan.Status)
	}

	idx := installmentIndex(loan, installmentNumber)
	if idx < 0 {
		return fmt.Errorf("%w: number %d", ErrInstallmentNotFound, installmentNumber)
	}

	inst := &loan.Schedule[idx]
	switch policy {
	case OverpaymentReject:
		if inst.PaidAmount.Add(amount).GreaterThan(inst.AmountDue.Add(tolerance)) {
			return fmt.Errorf("%w: installment %d due %s, already paid %s, payment %s",
				ErrOverpaymentNotAllowed, installmentNumber, inst.AmountDue, inst.PaidAmount, amount)
		}
		creditInstallment(inst, amount, at)
	case OverpaymentCarryForward:
		carryForward(loan, idx, amount, at)
	default:
		creditInstallment(inst, amount, at)
	}

	recomputeAggregates(loan, at)
	return nil
}

func creditInstallment(inst *domain.Installment, amount decimal.Decimal, at time.Time) {
	inst.PaidAmount = inst.PaidAmount.Add(amount)
	paidAt := at
	inst.PaidAt = &paidAt

	if inst.PaidAmount.GreaterThanOrEqual(inst.AmountDue.Sub(tolerance)) {
		inst.Status = domain.InstallmentPaid
	} else if inst.Status != domain.InstallmentPaid {
		inst.Status = domain.InstallmentPartial
	}
}

// carryForward credits the named installment up to its due amount and rolls
// any excess onto later unpaid installments in schedule order. Excess beyond
// the final installment stays on the final installment.
func carryForward(loan *domain.Loan, idx int, amount decimal.Decimal, at time.Time) {
	remaining := amount
	for i := idx; i < len(loan.Schedule) && remaining.IsPositive(); i++ {
		inst := &loan.Schedule[i]
		if inst.Status == domain.InstallmentPaid {
			continue
		}

		due := inst.AmountDue.Sub(inst.PaidAmount)
		credit := remaining
		if credit.GreaterThan(due) && i < len(loan.Schedule)-1 {
			credit = due
		}
		creditInstallment(inst, credit, at)
		remaining = remaining.Sub(credit)
	}
}

func recomputeAggregates(loan *domain.Loan, at time.Time) {
	totalPaid := decimal.Zero
	allPaid := len(loan.Schedule) > 0
	anyOverdue := false
	for i := range loan.Schedule {
		totalPaid = totalPaid.Add(loan.Schedule[i].PaidAmount)
		if loan.Schedule[i].Status != domain.InstallmentPaid {
			allPaid = false
		}
		if loan.Schedule[i].Status == domain.InstallmentOverdue {
			anyOverdue = true
		}
	}

	loan.Summary.TotalPaid = totalPaid
	paymentDate := at
	loan.Summary.LastPaymentDate = &paymentDate

	switch {
	case allPaid && repaying(loan.Status):
		loan.Status = domain.LoanCompleted
	case loan.Status == domain.LoanDisbursed:
		loan.Status = domain.LoanActive
	case !anyOverdue &&
		(loan.Status == domain.LoanInArrears || loan.Status == domain.LoanDefaulted):
		// Clearing the last overdue installment cures the arrears status.
		loan.Status = domain.LoanActive
		loan.Summary.DaysInArrears = 0
		loan.Summary.MissedPaymentsCount = 0
	}
}

func repaying(s domain.LoanStatus) bool {
	switch s {
	case domain.LoanDisbursed, domain.LoanActive, domain.LoanInArrears, domain.LoanDefaulted:
		return true
	}
	return false
}

func installmentIndex(loan *domain.Loan, number int) int {
	for i := range loan.Schedule {
		if loan.Schedule[i].Number == number {
			return i
		}
	}
	return -1
}
