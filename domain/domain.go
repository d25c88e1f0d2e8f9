package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

type Role string

const (
	SuperUserRole   Role = "super_user"
	LenderAdminRole Role = "lender_admin"
	HROfficerRole   Role = "hr_officer"
	EmployeeRole    Role = "employee"
)

// CompanyType distinguishes lending institutions from the employer
// companies whose staff borrow from them.
type CompanyType string

const (
	CompanyLender   CompanyType = "lender"
	CompanyEmployer CompanyType = "employer"
)

type Company struct {
	ID                 uint64
	Name               string
	RegistrationNumber string
	Type               CompanyType
	// LenderID links an employer company to the lender that services it.
	// Zero for lender companies themselves.
	LenderID           uint64
	MaxLoanAmount      decimal.Decimal
	InterestRate       decimal.Decimal
	RequireGuarantor   bool
	AllowMultipleLoans bool
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Users []User
	Loans []Loan
}

type User struct {
	ID           uint64
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CompanyID    uint64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Company Company
}

type LoanStatus string

const (
	LoanPendingApproval     LoanStatus = "pending_approval"
	LoanPendingDocuments    LoanStatus = "pending_documents"
	LoanUnderReview         LoanStatus = "under_review"
	LoanApproved            LoanStatus = "approved"
	LoanRejected            LoanStatus = "rejected"
	LoanPendingDisbursement LoanStatus = "pending_disbursement"
	LoanDisbursed           LoanStatus = "disbursed"
	LoanActive              LoanStatus = "active"
	LoanInArrears           LoanStatus = "in_arrears"
	LoanDefaulted           LoanStatus = "defaulted"
	LoanCompleted           LoanStatus = "completed"
	LoanCancelled           LoanStatus = "cancelled"
)

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

type Guarantor struct {
	Name        string
	Phone       string
	NationalID  string
	DocumentURL string
}

func (g Guarantor) Present() bool {
	return g.Name != "" && g.NationalID != ""
}

// PaymentSummary is the derived payment-tracking aggregate carried on a loan.
// It is recomputed by the engine, never written directly.
type PaymentSummary struct {
	TotalPaid           decimal.Decimal
	LastPaymentDate     *time.Time
	DaysInArrears       int
	MissedPaymentsCount int
}

type Loan struct {
	ID         uint64
	LoanNumber string
	BorrowerID uint64
	CompanyID  uint64

	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
	Purpose           string

	// Derived amortization figures, recomputed while the loan is unlocked.
	PeriodicPayment decimal.Decimal
	TotalInterest   decimal.Decimal
	TotalPayable    decimal.Decimal

	Status          LoanStatus
	RejectionReason string
	Guarantor       Guarantor

	AppliedAt   time.Time
	ApprovedAt  *time.Time
	DisbursedAt *time.Time

	Schedule []Installment
	Summary  PaymentSummary

	CreatedAt time.Time
	UpdatedAt time.Time

	Borrower User
	Company  Company
}

// Locked reports whether the loan's repayment schedule is frozen.
// Disbursement locks the schedule shape for good.
func (l *Loan) Locked() bool {
	return l.DisbursedAt != nil
}

// Installment is one scheduled repayment obligation. It has no identity
// outside its owning loan; Number orders the schedule.
type Installment struct {
	ID     uint64
	LoanID uint64
	Number int

	DueDate            time.Time
	AmountDue          decimal.Decimal
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal

	Status     InstallmentStatus
	PaidAmount decimal.Decimal
	PaidAt     *time.Time
}

// Payment is the append-only record of a payment application, keyed by a
// client-supplied (or generated) reference for idempotency.
type Payment struct {
	ID                uint64
	LoanID            uint64
	InstallmentNumber int
	Amount            decimal.Decimal
	Reference         string
	RecordedBy        uint64
	CreatedAt         time.Time
}

type JwtCustomClaims struct {
	UserID    uint64 `json:"user_id"`
	CompanyID uint64 `json:"company_id"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

type Params struct {
	Status    string
	CompanyID uint64
	Page      int
	Limit     int
}

type Paginated struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}
