package dto

import (
	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/shopspring/decimal"
)

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterUser struct {
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=super_user lender_admin hr_officer employee"`
	CompanyID uint64 `json:"company_id" validate:"required,gt=0"`
}

type CreateCompany struct {
	Name               string  `json:"name" validate:"required"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	Type               string  `json:"type" validate:"required,oneof=lender employer"`
	LenderID           uint64  `json:"lender_id" validate:"required_if=Type employer"`
	MaxLoanAmount      float64 `json:"max_loan_amount" validate:"required,gt=0"`
	InterestRate       float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	RequireGuarantor   bool    `json:"require_guarantor"`
	AllowMultipleLoans bool    `json:"allow_multiple_loans"`
}

type UpdateCompanyPolicy struct {
	MaxLoanAmount      float64 `json:"max_loan_amount" validate:"required,gt=0"`
	InterestRate       float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	RequireGuarantor   bool    `json:"require_guarantor"`
	AllowMultipleLoans bool    `json:"allow_multiple_loans"`
}

type ApplyLoan struct {
	Principal  float64 `json:"principal" validate:"required,gt=0"`
	TermMonths int     `json:"term_months" validate:"required,gte=1,lte=60"`
	Purpose    string  `json:"purpose" validate:"required"`

	GuarantorName       string `json:"guarantor_name,omitempty"`
	GuarantorPhone      string `json:"guarantor_phone,omitempty"`
	GuarantorNationalID string `json:"guarantor_national_id,omitempty"`
}

type RejectLoan struct {
	Reason string `json:"reason" validate:"required"`
}

type RecordPayment struct {
	InstallmentNumber int     `json:"installment_number" validate:"required,gt=0"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	// Reference is the client's idempotency key; generated when absent.
	Reference string `json:"reference,omitempty" validate:"omitempty,max=64"`
}

// --- Mapping --- //

func CreateCompanyToEntity(req CreateCompany) *domain.Company {
	return &domain.Company{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Type:               domain.CompanyType(req.Type),
		LenderID:           req.LenderID,
		MaxLoanAmount:      decimal.NewFromFloat(req.MaxLoanAmount),
		InterestRate:       decimal.NewFromFloat(req.InterestRate),
		RequireGuarantor:   req.RequireGuarantor,
		AllowMultipleLoans: req.AllowMultipleLoans,
		Active:             true,
	}
}

func ApplyLoanToEntity(req ApplyLoan, borrowerID, companyID uint64) *domain.Loan {
	return &domain.Loan{
		BorrowerID: borrowerID,
		CompanyID:  companyID,
		Principal:  decimal.NewFromFloat(req.Principal),
		TermMonths: req.TermMonths,
		Purpose:    req.Purpose,
		Guarantor: domain.Guarantor{
			Name:       req.GuarantorName,
			Phone:      req.GuarantorPhone,
			NationalID: req.GuarantorNationalID,
		},
		Status: domain.LoanPendingApproval,
	}
}
