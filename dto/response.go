package dto

import (
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/shopspring/decimal"
)

type LoginResponse struct {
	Token string     `json:"token"`
	User  UserDetail `json:"user"`
}

type UserDetail struct {
	ID        uint64      `json:"id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CompanyID uint64      `json:"company_id"`
}

func UserToDetail(user *domain.User) UserDetail {
	return UserDetail{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
}

// PortfolioReport aggregates the loan book for one company, or for the
// whole portfolio when CompanyID is zero.
type PortfolioReport struct {
	CompanyID        uint64           `json:"company_id"`
	TotalLoans       int64            `json:"total_loans"`
	StatusCounts     map[string]int64 `json:"status_counts"`
	TotalPrincipal   decimal.Decimal  `json:"total_principal"`
	TotalPaid        decimal.Decimal  `json:"total_paid"`
	TotalOutstanding decimal.Decimal  `json:"total_outstanding"`
	LoansInArrears   int64            `json:"loans_in_arrears"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
