package model

import (
	"github.com/ndalamahub/ndalamahub/domain"
)

// CompanyToEntity maps the company row to its domain entity.
func CompanyToEntity(m *Company) *domain.Company {
	if m == nil {
		return nil
	}
	return &domain.Company{
		ID:                 m.ID,
		Name:               m.Name,
		RegistrationNumber: m.RegistrationNumber,
		Type:               m.Type,
		LenderID:           m.LenderID,
		MaxLoanAmount:      m.MaxLoanAmount,
		InterestRate:       m.InterestRate,
		RequireGuarantor:   m.RequireGuarantor,
		AllowMultipleLoans: m.AllowMultipleLoans,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// CompanyFromEntity maps a domain company onto its row representation.
func CompanyFromEntity(e *domain.Company) *Company {
	if e == nil {
		return nil
	}
	return &Company{
		ID:                 e.ID,
		Name:               e.Name,
		RegistrationNumber: e.RegistrationNumber,
		Type:               e.Type,
		LenderID:           e.LenderID,
		MaxLoanAmount:      e.MaxLoanAmount,
		InterestRate:       e.InterestRate,
		RequireGuarantor:   e.RequireGuarantor,
		AllowMultipleLoans: e.AllowMultipleLoans,
		Active:             e.Active,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func UserToEntity(m *User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CompanyID:    m.CompanyID,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserFromEntity(e *domain.User) *User {
	if e == nil {
		return nil
	}
	return &User{
		ID:           e.ID,
		FullName:     e.FullName,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Role:         e.Role,
		CompanyID:    e.CompanyID,
		Active:       e.Active,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// LoanToEntity maps a loan row and its installments to the domain loan.
func LoanToEntity(m *Loan) *domain.Loan {
	if m == nil {
		return nil
	}
	schedule := make([]domain.Installment, 0, len(m.Schedule))
	for i := range m.Schedule {
		schedule = append(schedule, *InstallmentToEntity(&m.Schedule[i]))
	}
	return &domain.Loan{
		ID:                m.ID,
		LoanNumber:        m.LoanNumber,
		BorrowerID:        m.BorrowerID,
		CompanyID:         m.CompanyID,
		Principal:         m.Principal,
		AnnualRatePercent: m.AnnualRatePercent,
		TermMonths:        m.TermMonths,
		Purpose:           m.Purpose,
		PeriodicPayment:   m.PeriodicPayment,
		TotalInterest:     m.TotalInterest,
		TotalPayable:      m.TotalPayable,
		Status:            m.Status,
		RejectionReason:   m.RejectionReason,
		Guarantor: domain.Guarantor{
			Name:        m.GuarantorName,
			Phone:       m.GuarantorPhone,
			NationalID:  m.GuarantorNationalID,
			DocumentURL: m.GuarantorDocumentURL,
		},
		AppliedAt:   m.AppliedAt,
		ApprovedAt:  m.ApprovedAt,
		DisbursedAt: m.DisbursedAt,
		Schedule:    schedule,
		Summary: domain.PaymentSummary{
			TotalPaid:           m.TotalPaid,
			LastPaymentDate:     m.LastPaymentDate,
			DaysInArrears:       m.DaysInArrears,
			MissedPaymentsCount: m.MissedPaymentsCount,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// LoanFromEntity maps a domain loan onto its row representation,
// including the full installment schedule.
func LoanFromEntity(e *domain.Loan) *Loan {
	if e == nil {
		return nil
	}
	schedule := make([]Installment, 0, len(e.Schedule))
	for i := range e.Schedule {
		row := InstallmentFromEntity(&e.Schedule[i])
		row.LoanID = e.ID
		schedule = append(schedule, *row)
	}
	return &Loan{
		ID:                   e.ID,
		LoanNumber:           e.LoanNumber,
		BorrowerID:           e.BorrowerID,
		CompanyID:            e.CompanyID,
		Principal:            e.Principal,
		AnnualRatePercent:    e.AnnualRatePercent,
		TermMonths:           e.TermMonths,
		Purpose:              e.Purpose,
		PeriodicPayment:      e.PeriodicPayment,
		TotalInterest:        e.TotalInterest,
		TotalPayable:         e.TotalPayable,
		Status:               e.Status,
		RejectionReason:      e.RejectionReason,
		GuarantorName:        e.Guarantor.Name,
		GuarantorPhone:       e.Guarantor.Phone,
		GuarantorNationalID:  e.Guarantor.NationalID,
		GuarantorDocumentURL: e.Guarantor.DocumentURL,
		AppliedAt:            e.AppliedAt,
		ApprovedAt:           e.ApprovedAt,
		DisbursedAt:          e.DisbursedAt,
		TotalPaid:            e.Summary.TotalPaid,
		LastPaymentDate:      e.Summary.LastPaymentDate,
		DaysInArrears:        e.Summary.DaysInArrears,
		MissedPaymentsCount:  e.Summary.MissedPaymentsCount,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
		Schedule:             schedule,
	}
}

func InstallmentToEntity(m *Installment) *domain.Installment {
	if m == nil {
		return nil
	}
	return &domain.Installment{
		ID:                 m.ID,
		LoanID:             m.LoanID,
		Number:             m.Number,
		DueDate:            m.DueDate,
		AmountDue:          m.AmountDue,
		PrincipalComponent: m.PrincipalComponent,
		InterestComponent:  m.InterestComponent,
		Status:             m.Status,
		PaidAmount:         m.PaidAmount,
		PaidAt:             m.PaidAt,
	}
}

func InstallmentFromEntity(e *domain.Installment) *Installment {
	if e == nil {
		return nil
	}
	return &Installment{
		ID:                 e.ID,
		LoanID:             e.LoanID,
		Number:             e.Number,
		DueDate:            e.DueDate,
		AmountDue:          e.AmountDue,
		PrincipalComponent: e.PrincipalComponent,
		InterestComponent:  e.InterestComponent,
		Status:             e.Status,
		PaidAmount:         e.PaidAmount,
		PaidAt:             e.PaidAt,
	}
}

func PaymentToEntity(m *Payment) *domain.Payment {
	if m == nil {
		return nil
	}
	return &domain.Payment{
		ID:                m.ID,
		LoanID:            m.LoanID,
		InstallmentNumber: m.InstallmentNumber,
		Amount:            m.Amount,
		Reference:         m.Reference,
		RecordedBy:        m.RecordedBy,
		CreatedAt:         m.CreatedAt,
	}
}

func PaymentFromEntity(e *domain.Payment) *Payment {
	if e == nil {
		return nil
	}
	return &Payment{
		ID:                e.ID,
		LoanID:            e.LoanID,
		InstallmentNumber: e.InstallmentNumber,
		Amount:            e.Amount,
		Reference:         e.Reference,
		RecordedBy:        e.RecordedBy,
		CreatedAt:         e.CreatedAt,
	}
}
