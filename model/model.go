package model

import (
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company represents the companies table
type Company struct {
	ID                 uint64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name               string             `gorm:"type:varchar(255);not null" json:"name"`
	RegistrationNumber string             `gorm:"type:varchar(50);not null;uniqueIndex" json:"registration_number"`
	Type               domain.CompanyType `gorm:"type:varchar(20);not null" json:"type"`
	LenderID           uint64             `gorm:"index" json:"lender_id"`
	MaxLoanAmount      decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"max_loan_amount"`
	InterestRate       decimal.Decimal    `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	RequireGuarantor   bool               `gorm:"not null;default:false" json:"require_guarantor"`
	AllowMultipleLoans bool               `gorm:"not null;default:false" json:"allow_multiple_loans"`
	Active             bool               `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	Users []User `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
	Loans []Loan `gorm:"foreignKey:CompanyID" json:"loans,omitempty"`
}

// User represents the users table
type User struct {
	ID           uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName     string      `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string      `gorm:"type:varchar(255);not null" json:"-"`
	Role         domain.Role `gorm:"type:varchar(20);not null" json:"role"`
	CompanyID    uint64      `gorm:"not null;index" json:"company_id"`
	Active       bool        `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	Company Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:RESTRICT" json:"company,omitempty"`
}

// Loan represents the loans table. The repayment schedule is owned
// exclusively by the loan; installments have no life of their own.
type Loan struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanNumber string `gorm:"type:varchar(20);not null;uniqueIndex" json:"loan_number"`
	BorrowerID uint64 `gorm:"not null;index" json:"borrower_id"`
	CompanyID  uint64 `gorm:"not null;index" json:"company_id"`

	Principal         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal"`
	AnnualRatePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"annual_rate_percent"`
	TermMonths        int             `gorm:"not null" json:"term_months"`
	Purpose           string          `gorm:"type:varchar(255)" json:"purpose"`

	PeriodicPayment decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"periodic_payment"`
	TotalInterest   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_interest"`
	TotalPayable    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_payable"`

	Status          domain.LoanStatus `gorm:"type:varchar(24);not null;default:'pending_approval';index" json:"status"`
	RejectionReason string            `gorm:"type:varchar(255)" json:"rejection_reason,omitempty"`

	GuarantorName        string `gorm:"type:varchar(255)" json:"guarantor_name,omitempty"`
	GuarantorPhone       string `gorm:"type:varchar(30)" json:"guarantor_phone,omitempty"`
	GuarantorNationalID  string `gorm:"type:varchar(30)" json:"guarantor_national_id,omitempty"`
	GuarantorDocumentURL string `gorm:"type:varchar(255)" json:"guarantor_document_url,omitempty"`

	AppliedAt   time.Time  `gorm:"not null" json:"applied_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	DisbursedAt *time.Time `json:"disbursed_at,omitempty"`

	TotalPaid           decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_paid"`
	LastPaymentDate     *time.Time      `json:"last_payment_date,omitempty"`
	DaysInArrears       int             `gorm:"not null;default:0" json:"days_in_arrears"`
	MissedPaymentsCount int             `gorm:"not null;default:0" json:"missed_payments_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Schedule []Installment `gorm:"foreignKey:LoanID" json:"schedule,omitempty"`
	Borrower User          `gorm:"foreignKey:BorrowerID;constraint:OnDelete:RESTRICT" json:"borrower,omitempty"`
	Company  Company       `gorm:"foreignKey:CompanyID;constraint:OnDelete:RESTRICT" json:"company,omitempty"`
}

// Installment represents the loan_installments table
type Installment struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID uint64 `gorm:"not null;uniqueIndex:idx_loan_installment,priority:1" json:"loan_id"`
	Number int    `gorm:"not null;uniqueIndex:idx_loan_installment,priority:2" json:"number"`

	DueDate            time.Time       `gorm:"type:date;not null" json:"due_date"`
	AmountDue          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount_due"`
	PrincipalComponent decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal_component"`
	InterestComponent  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"interest_component"`

	Status     domain.InstallmentStatus `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	PaidAmount decimal.Decimal          `gorm:"type:decimal(15,2);not null;default:0" json:"paid_amount"`
	PaidAt     *time.Time               `json:"paid_at,omitempty"`
}

// Payment represents the loan_payments table, the append-only payment log.
type Payment struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanID            uint64          `gorm:"not null;index" json:"loan_id"`
	InstallmentNumber int             `gorm:"not null" json:"installment_number"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reference         string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	RecordedBy        uint64          `gorm:"not null" json:"recorded_by"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Company) TableName() string {
	return "companies"
}

func (User) TableName() string {
	return "users"
}

func (Loan) TableName() string {
	return "loans"
}

func (Installment) TableName() string {
	return "loan_installments"
}

func (Payment) TableName() string {
	return "loan_payments"
}

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Company{},
		&User{},
		&Loan{},
		&Installment{},
		&Payment{},
	)
}
