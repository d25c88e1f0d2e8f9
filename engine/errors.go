package engine

import "errors"

var (
	ErrInvalidLoanParameters    = errors.New("invalid loan parameters")
	ErrInvalidPaymentAmount     = errors.New("payment amount must be positive")
	ErrInstallmentNotFound      = errors.New("installment not found in schedule")
	ErrScheduleLocked           = errors.New("repayment schedule is locked after disbursement")
	ErrOverpaymentNotAllowed    = errors.New("payment exceeds amount due on installment")
	ErrLoanNotInRepayment       = errors.New("loan is not in repayment")
	ErrDisbursementPrecondition = errors.New("disbursement preconditions not met")
	ErrIllegalTransition        = errors.New("illegal loan status transition")
	ErrReasonRequired           = errors.New("a reason is required for this transition")
)
