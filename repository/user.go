package repository

import (
	"context"
	"errors"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/model"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// CreateUser implements UserRepository.
func (u *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	data := model.UserFromEntity(user)
	if err := u.db.WithContext(ctx).Create(&data).Error; err != nil {
		return err
	}

	user.ID = data.ID
	return nil
}

// FindByID implements UserRepository.
func (u *userRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var user model.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.UserToEntity(&user), nil
}

// FindByEmail implements UserRepository.
func (u *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user model.User
	if err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.UserToEntity(&user), nil
}

// FindPaginated implements UserRepository.
func (u *userRepository) FindPaginated(ctx context.Context, params domain.Params) ([]domain.User, int64, error) {
	var users []model.User
	var total int64

	query := u.db.WithContext(ctx).Model(&model.User{})
	countQuery := u.db.WithContext(ctx).Model(&model.User{})

	if params.CompanyID != 0 {
		query = query.Where("company_id = ?", params.CompanyID)
		countQuery = countQuery.Where("company_id = ?", params.CompanyID)
	}
	if params.Status != "" {
		query = query.Where("role = ?", params.Status)
		countQuery = countQuery.Where("role = ?", params.Status)
	}

	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	if err := query.Limit(params.Limit).Offset(offset).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	result := make([]domain.User, 0, len(users))
	for i := range users {
		result = append(result, *model.UserToEntity(&users[i]))
	}

	return result, total, nil
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}
