package service

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/repository"

	"go.uber.org/zap"
)

type companyService struct {
	db                *gorm.DB
	companyRepository repository.CompanyRepository
	log               *zap.Logger
}

// CreateCompany implements CompanyServices.
func (c *companyService) CreateCompany(ctx context.Context, req dto.CreateCompany) (*domain.Company, error) {
	tx := c.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	companyTx := repository.NewCompanyRepository(tx)

	existing, err := companyTx.FindByRegistrationNumber(ctx, req.RegistrationNumber)
	if err != nil {
		return nil, fmt.Errorf("error checking registration number: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("company with registration number %s already exists", req.RegistrationNumber)
	}

	company := dto.CreateCompanyToEntity(req)

	// An employer company must hang off an existing lender.
	if company.Type == domain.CompanyEmployer {
		lender, err := companyTx.FindByID(ctx, company.LenderID)
		if err != nil {
			return nil, fmt.Errorf("error finding lender: %w", err)
		}
		if lender == nil || lender.Type != domain.CompanyLender {
			return nil, common.ErrCompanyNotFound
		}
	}

	if err := companyTx.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.log.Info("Company created",
		zap.Uint64("company_id", company.ID),
		zap.String("name", company.Name),
		zap.String("type", string(company.Type)),
	)

	return company, nil
}

// GetCompany implements CompanyServices.
func (c *companyService) GetCompany(ctx context.Context, id uint64) (*domain.Company, error) {
	company, err := c.companyRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, common.ErrCompanyNotFound
	}

	return company, nil
}

// ListCompanies implements CompanyServices.
func (c *companyService) ListCompanies(ctx context.Context, params domain.Params) (*domain.Paginated, error) {
	companies, total, err := c.companyRepository.FindPaginated(ctx, params)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return &domain.Paginated{
		Data:       companies,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}, nil
}

// UpdatePolicy implements CompanyServices.
func (c *companyService) UpdatePolicy(ctx context.Context, id uint64, req dto.UpdateCompanyPolicy) error {
	tx := c.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	companyTx := repository.NewCompanyRepository(tx)
	company, err := companyTx.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error finding company: %w", err)
	}
	if company == nil {
		return common.ErrCompanyNotFound
	}

	company.MaxLoanAmount = decimal.NewFromFloat(req.MaxLoanAmount)
	company.InterestRate = decimal.NewFromFloat(req.InterestRate)
	company.RequireGuarantor = req.RequireGuarantor
	company.AllowMultipleLoans = req.AllowMultipleLoans

	if err := companyTx.UpdateCompany(ctx, company); err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.log.Info("Company policy updated",
		zap.Uint64("company_id", id),
		zap.Float64("max_loan_amount", req.MaxLoanAmount),
		zap.Float64("interest_rate", req.InterestRate),
	)

	return nil
}

func NewCompanyService(
	db *gorm.DB,
	companyRepository repository.CompanyRepository,
	log *zap.Logger,
) CompanyServices {
	return &companyService{
		db:                db,
		companyRepository: companyRepository,
		log:               log,
	}
}
