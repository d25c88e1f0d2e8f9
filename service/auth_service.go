package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/pkg/password"
	"github.com/ndalamahub/ndalamahub/repository"

	"go.uber.org/zap"
)

type authService struct {
	db                *gorm.DB
	userRepository    repository.UserRepository
	companyRepository repository.CompanyRepository
	jwtSecret         []byte
	tokenTTL          time.Duration
	log               *zap.Logger
}

// Register implements AuthServices.
func (a *authService) Register(ctx context.Context, req dto.RegisterUser) (*domain.User, error) {
	tx := a.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	userTx := repository.NewUserRepository(tx)
	existing, err := userTx.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if existing != nil {
		return nil, common.ErrEmailTaken
	}

	companyTx := repository.NewCompanyRepository(tx)
	company, err := companyTx.FindByID(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("error finding company: %w", err)
	}
	if company == nil {
		return nil, common.ErrCompanyNotFound
	}

	hash, err := password.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.Role(req.Role),
		CompanyID:    req.CompanyID,
		Active:       true,
	}

	if err := userTx.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.log.Info("User registered",
		zap.Uint64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Uint64("company_id", user.CompanyID),
	)

	return user, nil
}

// Login implements AuthServices.
func (a *authService) Login(ctx context.Context, req dto.Login) (*dto.LoginResponse, error) {
	user, err := a.userRepository.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, common.ErrInvalidCredentials
	}

	if !password.CheckPasswordHash(req.Password, user.PasswordHash) {
		a.log.Warn("Failed login attempt", zap.String("email", req.Email))
		return nil, common.ErrInvalidCredentials
	}

	claims := domain.JwtCustomClaims{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	a.log.Info("User logged in",
		zap.Uint64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return &dto.LoginResponse{
		Token: signed,
		User:  dto.UserToDetail(user),
	}, nil
}

func NewAuthService(
	db *gorm.DB,
	userRepository repository.UserRepository,
	companyRepository repository.CompanyRepository,
	jwtSecret string,
	log *zap.Logger,
) AuthServices {
	return &authService{
		db:                db,
		userRepository:    userRepository,
		companyRepository: companyRepository,
		jwtSecret:         []byte(jwtSecret),
		tokenTTL:          24 * time.Hour,
		log:               log,
	}
}
