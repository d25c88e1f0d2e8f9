// Package engine implements the loan lifecycle engine: amortization,
// repayment schedule generation, payment application, arrears derivation and
// the loan status state machine. Everything here is a pure computation over
// the domain aggregate; persistence, locking and logging belong to callers.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	MinTermMonths = 1
	MaxTermMonths = 60
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
	maxRate = decimal.NewFromInt(100)

	// Rounding tolerance for money comparisons (one cent).
	tolerance = decimal.New(1, -2)
)

// Amortization holds the derived figures for a fixed-payment loan.
type Amortization struct {
	PeriodicPayment decimal.Decimal
	TotalInterest   decimal.Decimal
	TotalPayable    decimal.Decimal
}

// ComputeAmortization computes the fixed monthly payment, total interest and
// total payable for the given principal, annual percentage rate and term.
// All derived values are rounded half-up to 2 decimals.
func ComputeAmortization(principal, annualRatePercent decimal.Decimal, termMonths int) (Amortization, error) {
	if err := validateParameters(principal, annualRatePercent, termMonths); err != nil {
		return Amortization{}, err
	}

	term := decimal.NewFromInt(int64(termMonths))

	if annualRatePercent.IsZero() {
		payment := principal.Div(term).Round(2)
		return Amortization{
			PeriodicPayment: payment,
			TotalInterest:   decimal.Zero,
			TotalPayable:    principal,
		}, nil
	}

	// Standard annuity formula: P * r * (1+r)^n / ((1+r)^n - 1)
	monthlyRate := MonthlyRate(annualRatePercent)
	factor := one.Add(monthlyRate).Pow(term)
	payment := principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(one)).Round(2)

	totalInterest := payment.Mul(term).Sub(principal).Round(2)
	totalPayable := principal.Add(totalInterest)

	return Amortization{
		PeriodicPayment: payment,
		TotalInterest:   totalInterest,
		TotalPayable:    totalPayable,
	}, nil
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(twelve)
}

func validateParameters(principal, annualRatePercent decimal.Decimal, termMonths int) error {
	if !principal.IsPositive() {
		return fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidLoanParameters, principal)
	}
	if annualRatePercent.IsNegative() || annualRatePercent.GreaterThan(maxRate) {
		return fmt.Errorf("%w: annual rate must be between 0 and 100, got %s", ErrInvalidLoanParameters, annualRatePercent)
	}
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return fmt.Errorf("%w: term must be between %d and %d months, got %d", ErrInvalidLoanParameters, MinTermMonths, MaxTermMonths, termMonths)
	}
	return nil
}
