package engine

import (
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/shopspring/decimal"
)

// DueDatePolicy computes the due date of installment n counted from the
// schedule start date.
type DueDatePolicy func(start time.Time, n int) time.Time

// ThirtyDayPeriods spaces installments a flat 30 days apart. This matches the
// behavior existing loan records were generated with, so it is the default.
func ThirtyDayPeriods(start time.Time, n int) time.Time {
	return start.AddDate(0, 0, n*30)
}

// CalendarMonths spaces installments by true calendar months.
func CalendarMonths(start time.Time, n int) time.Time {
	return start.AddDate(0, n, 0)
}

// GenerateSchedule produces the ordered installment sequence for a loan.
// Interest for each period is charged on the remaining principal; the final
// installment's principal component is clamped so the components sum exactly
// to the original principal, absorbing rounding drift at the tail.
func GenerateSchedule(principal, annualRatePercent decimal.Decimal, termMonths int, periodicPayment decimal.Decimal, startDate time.Time, nextDue DueDatePolicy) ([]domain.Installment, error) {
	if err := validateParameters(principal, annualRatePercent, termMonths); err != nil {
		return nil, err
	}
	if nextDue == nil {
		nextDue = ThirtyDayPeriods
	}

	monthlyRate := MonthlyRate(annualRatePercent)
	remaining := principal

	schedule := make([]domain.Installment, 0, termMonths)
	for n := 1; n <= termMonths; n++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principalPart := periodicPayment.Sub(interest)
		amountDue := periodicPayment

		if n == termMonths {
			// Clamp: the last installment repays whatever principal is left.
			principalPart = remaining
			amountDue = principalPart.Add(interest).Round(2)
		}
		remaining = remaining.Sub(principalPart)

		schedule = append(schedule, domain.Installment{
			Number:             n,
			DueDate:            nextDue(startDate, n),
			AmountDue:          amountDue,
			PrincipalComponent: principalPart.Round(2),
			InterestComponent:  interest,
			Status:             domain.InstallmentPending,
			PaidAmount:         decimal.Zero,
		})
	}

	return schedule, nil
}

// Reschedule regenerates a loan's schedule in place from its current
// amortization parameters. It refuses once the loan has been disbursed:
// regenerating then would corrupt payment history.
func Reschedule(loan *domain.Loan, startDate time.Time, nextDue DueDatePolicy) error {
	if loan.Locked() {
		return ErrScheduleLocked
	}

	schedule, err := GenerateSchedule(loan.Principal, loan.AnnualRatePercent, loan.TermMonths, loan.PeriodicPayment, startDate, nextDue)
	if err != nil {
		return err
	}

	// Carry row identity over so persistence updates the existing
	// installments instead of inserting duplicates.
	for i := range schedule {
		schedule[i].LoanID = loan.ID
		if i < len(loan.Schedule) && loan.Schedule[i].Number == schedule[i].Number {
			schedule[i].ID = loan.Schedule[i].ID
		}
	}
	loan.Schedule = schedule
	return nil
}
