package engine

import (
	"math"
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
)

const defaultThresholdDays = 90

// Arrears is the result of an arrears evaluation.
type Arrears struct {
	DaysInArrears int
	// MissedCount is the number of installments currently overdue.
	MissedCount int
	// Override is the loan status the arrears position dictates, or empty
	// when the position dictates no change.
	Override domain.LoanStatus
}

// MarkOverdue flips past-due pending and partial installments to overdue.
// It is called by the scheduled sweep, never during payment application.
// Returns the number of installments transitioned.
func MarkOverdue(loan *domain.Loan, asOf time.Time) int {
	flipped := 0
	for i := range loan.Schedule {
		inst := &loan.Schedule[i]
		if !asOf.After(inst.DueDate) {
			continue
		}
		if inst.Status == domain.InstallmentPending || inst.Status == domain.InstallmentPartial {
			inst.Status = domain.InstallmentOverdue
			flipped++
		}
	}
	return flipped
}

// EvaluateArrears derives the days-in-arrears position from the earliest
// overdue installment. Pure: evaluating twice with the same inputs yields
// the same result.
func EvaluateArrears(loan *domain.Loan, asOf time.Time) Arrears {
	var earliest *domain.Installment
	missed := 0
	for i := range loan.Schedule {
		inst := &loan.Schedule[i]
		if inst.Status != domain.InstallmentOverdue {
			continue
		}
		missed++
		if earliest == nil || inst.DueDate.Before(earliest.DueDate) {
			earliest = inst
		}
	}

	if earliest == nil {
		// Nothing overdue anymore: an arrears status has been cured.
		var result Arrears
		if loan.Status == domain.LoanInArrears || loan.Status == domain.LoanDefaulted {
			result.Override = domain.LoanActive
		}
		return result
	}

	days := int(math.Ceil(asOf.Sub(earliest.DueDate).Hours() / 24))
	if days < 0 {
		days = 0
	}

	result := Arrears{DaysInArrears: days, MissedCount: missed}
	if !repaying(loan.Status) || loan.Status == domain.LoanDefaulted {
		return result
	}

	switch {
	case days > defaultThresholdDays:
		result.Override = domain.LoanDefaulted
	case days > 0:
		result.Override = domain.LoanInArrears
	}
	return result
}
