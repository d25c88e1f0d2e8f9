package repository

import (
	"context"
	"errors"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/model"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// CreatePayment implements PaymentRepository.
func (p *paymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	data := model.PaymentFromEntity(payment)
	if err := p.db.WithContext(ctx).Create(&data).Error; err != nil {
		return err
	}

	payment.ID = data.ID
	return nil
}

// FindByReference implements PaymentRepository.
func (p *paymentRepository) FindByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var payment model.Payment
	if err := p.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.PaymentToEntity(&payment), nil
}

// FindByLoanID implements PaymentRepository.
func (p *paymentRepository) FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error) {
	var payments []model.Payment
	if err := p.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("created_at ASC").Find(&payments).Error; err != nil {
		return nil, err
	}

	result := make([]domain.Payment, 0, len(payments))
	for i := range payments {
		result = append(result, *model.PaymentToEntity(&payments[i]))
	}

	return result, nil
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{
		db: db,
	}
}
