package repository

import (
	"context"
	"errors"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/model"
	"gorm.io/gorm"
)

type companyRepository struct {
	db *gorm.DB
}

// CreateCompany implements CompanyRepository.
func (c *companyRepository) CreateCompany(ctx context.Context, company *domain.Company) error {
	data := model.CompanyFromEntity(company)
	if err := c.db.WithContext(ctx).Create(&data).Error; err != nil {
		return err
	}

	company.ID = data.ID
	return nil
}

// FindByID implements CompanyRepository.
func (c *companyRepository) FindByID(ctx context.Context, id uint64) (*domain.Company, error) {
	var company model.Company
	if err := c.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.CompanyToEntity(&company), nil
}

// FindByRegistrationNumber implements CompanyRepository.
func (c *companyRepository) FindByRegistrationNumber(ctx context.Context, regNumber string) (*domain.Company, error) {
	var company model.Company
	if err := c.db.WithContext(ctx).Where("registration_number = ?", regNumber).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.CompanyToEntity(&company), nil
}

// FindPaginated implements CompanyRepository.
func (c *companyRepository) FindPaginated(ctx context.Context, params domain.Params) ([]domain.Company, int64, error) {
	var companies []model.Company
	var total int64

	query := c.db.WithContext(ctx).Model(&model.Company{})
	countQuery := c.db.WithContext(ctx).Model(&model.Company{})

	if params.Status != "" {
		query = query.Where("type = ?", params.Status)
		countQuery = countQuery.Where("type = ?", params.Status)
	}

	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	if err := query.Limit(params.Limit).Offset(offset).Order("created_at DESC").Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	result := make([]domain.Company, 0, len(companies))
	for i := range companies {
		result = append(result, *model.CompanyToEntity(&companies[i]))
	}

	return result, total, nil
}

// UpdateCompany implements CompanyRepository.
func (c *companyRepository) UpdateCompany(ctx context.Context, company *domain.Company) error {
	data := model.CompanyFromEntity(company)
	return c.db.WithContext(ctx).Save(&data).Error
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{
		db: db,
	}
}
