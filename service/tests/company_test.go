package service_test

import (
	"context"
	"testing"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/repository"
	"github.com/ndalamahub/ndalamahub/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newCompanyService(db *gorm.DB) service.CompanyServices {
	return service.NewCompanyService(db, repository.NewCompanyRepository(db), zap.NewNop())
}

func TestCreateCompany(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	svc := newCompanyService(db)

	var lenderID, employerID uint64

	t.Run("Success - Lender Created", func(t *testing.T) {
		company, err := svc.CreateCompany(ctx, dto.CreateCompany{
			Name:               "Chirundu Capital",
			RegistrationNumber: "LC-1001",
			Type:               "lender",
			MaxLoanAmount:      1_000_000,
			InterestRate:       24.0,
		})

		assert.NoError(t, err)
		assert.NotZero(t, company.ID)
		assert.Equal(t, domain.CompanyLender, company.Type)
		assert.True(t, company.Active)
		lenderID = company.ID
	})

	t.Run("Failure - Duplicate Registration Number", func(t *testing.T) {
		_, err := svc.CreateCompany(ctx, dto.CreateCompany{
			Name:               "Chirundu Capital Again",
			RegistrationNumber: "LC-1001",
			Type:               "lender",
			MaxLoanAmount:      500_000,
		})
		assert.Error(t, err)
	})

	t.Run("Success - Employer Linked To Lender", func(t *testing.T) {
		employer, err := svc.CreateCompany(ctx, dto.CreateCompany{
			Name:               "Kafue Transport Ltd",
			RegistrationNumber: "EC-2001",
			Type:               "employer",
			LenderID:           lenderID,
			MaxLoanAmount:      50_000,
			InterestRate:       24.0,
			RequireGuarantor:   true,
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.CompanyEmployer, employer.Type)
		assert.Equal(t, lenderID, employer.LenderID)
		employerID = employer.ID
	})

	t.Run("Failure - Employer Without Lender", func(t *testing.T) {
		_, err := svc.CreateCompany(ctx, dto.CreateCompany{
			Name:               "Orphan Employer",
			RegistrationNumber: "EC-2002",
			Type:               "employer",
			LenderID:           9999,
			MaxLoanAmount:      50_000,
		})
		assert.ErrorIs(t, err, common.ErrCompanyNotFound)
	})

	t.Run("Failure - Employer Referencing Employer", func(t *testing.T) {
		_, err := svc.CreateCompany(ctx, dto.CreateCompany{
			Name:               "Subsidiary Ltd",
			RegistrationNumber: "EC-2003",
			Type:               "employer",
			LenderID:           employerID,
			MaxLoanAmount:      50_000,
		})
		assert.ErrorIs(t, err, common.ErrCompanyNotFound)
	})
}

func TestUpdateCompanyPolicy(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	svc := newCompanyService(db)

	lender := seedLender(t, db)
	employer := seedEmployer(t, db, lender.ID, false, false)

	t.Run("Success - Policy Updated", func(t *testing.T) {
		err := svc.UpdatePolicy(ctx, employer.ID, dto.UpdateCompanyPolicy{
			MaxLoanAmount:      75_000,
			InterestRate:       18.5,
			RequireGuarantor:   true,
			AllowMultipleLoans: true,
		})
		assert.NoError(t, err)

		updated, err := svc.GetCompany(ctx, employer.ID)
		assert.NoError(t, err)
		assert.True(t, updated.MaxLoanAmount.Equal(decimal.NewFromInt(75_000)))
		assert.True(t, updated.InterestRate.Equal(decimal.NewFromFloat(18.5)))
		assert.True(t, updated.RequireGuarantor)
		assert.True(t, updated.AllowMultipleLoans)
	})

	t.Run("Failure - Company Not Found", func(t *testing.T) {
		err := svc.UpdatePolicy(ctx, 9999, dto.UpdateCompanyPolicy{MaxLoanAmount: 100})
		assert.ErrorIs(t, err, common.ErrCompanyNotFound)
	})
}

func TestListCompanies(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	svc := newCompanyService(db)

	lender := seedLender(t, db)
	seedEmployer(t, db, lender.ID, false, false)

	t.Run("Success - Filter By Type", func(t *testing.T) {
		page, err := svc.ListCompanies(ctx, domain.Params{Status: "employer", Page: 1, Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, 1, page.TotalPages)

		companies, ok := page.Data.([]domain.Company)
		assert.True(t, ok)
		assert.Len(t, companies, 1)
		assert.Equal(t, domain.CompanyEmployer, companies[0].Type)
	})

	t.Run("Success - All Companies", func(t *testing.T) {
		page, err := svc.ListCompanies(ctx, domain.Params{Page: 1, Limit: 1})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, 2, page.TotalPages)
	})
}
