package engine

import (
	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/shopspring/decimal"
)

// LoanSummary is the derived reporting view of a single loan. Computable at
// any time without mutation.
type LoanSummary struct {
	TotalAmount            decimal.Decimal     `json:"total_amount"`
	TotalPaid              decimal.Decimal     `json:"total_paid"`
	RemainingBalance       decimal.Decimal     `json:"remaining_balance"`
	OverdueAmount          decimal.Decimal     `json:"overdue_amount"`
	NextPendingInstallment *domain.Installment `json:"next_pending_installment,omitempty"`
}

// Summarize derives the payment position of a loan from its schedule.
func Summarize(loan *domain.Loan) LoanSummary {
	totalPaid := decimal.Zero
	overdue := decimal.Zero
	var next *domain.Installment

	for i := range loan.Schedule {
		inst := &loan.Schedule[i]
		totalPaid = totalPaid.Add(inst.PaidAmount)

		if inst.Status == domain.InstallmentOverdue {
			overdue = overdue.Add(inst.AmountDue.Sub(inst.PaidAmount))
		}
		if next == nil && (inst.Status == domain.InstallmentPending || inst.Status == domain.InstallmentPartial) {
			next = inst
		}
	}

	remaining := loan.TotalPayable.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return LoanSummary{
		TotalAmount:            loan.TotalPayable,
		TotalPaid:              totalPaid,
		RemainingBalance:       remaining,
		OverdueAmount:          overdue,
		NextPendingInstallment: next,
	}
}
