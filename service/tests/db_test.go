package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/model"
	"github.com/ndalamahub/ndalamahub/repository"
	"github.com/ndalamahub/ndalamahub/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	noop_metric "go.opentelemetry.io/otel/metric/noop"
	noop_trace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T) *gorm.DB {
	// One named in-memory database per test keeps fixtures isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = model.AutoMigrate(db)
	assert.NoError(t, err)

	return db
}

func newLoanService(db *gorm.DB, media service.Media) service.LoanServices {
	meter := noop_metric.NewMeterProvider().Meter("test-loan-service-meter")
	tracer := noop_trace.NewTracerProvider().Tracer("test-loan-service-tracer")
	log := zap.NewNop()

	return service.NewLoanService(
		db,
		repository.NewLoanRepository(db, meter, tracer, log),
		repository.NewPaymentRepository(db),
		repository.NewCompanyRepository(db),
		repository.NewUserRepository(db),
		media,
		meter,
		tracer,
		log,
	)
}

func seedLender(t *testing.T, db *gorm.DB) *domain.Company {
	company := &domain.Company{
		Name:               "Chirundu Capital",
		RegistrationNumber: "LC-1001",
		Type:               domain.CompanyLender,
		MaxLoanAmount:      decimal.NewFromInt(1_000_000),
		InterestRate:       decimal.NewFromFloat(24.0),
		Active:             true,
	}
	err := repository.NewCompanyRepository(db).CreateCompany(context.Background(), company)
	assert.NoError(t, err)
	return company
}

func seedEmployer(t *testing.T, db *gorm.DB, lenderID uint64, requireGuarantor, allowMultipleLoans bool) *domain.Company {
	company := &domain.Company{
		Name:               "Kafue Transport Ltd",
		RegistrationNumber: "EC-2001",
		Type:               domain.CompanyEmployer,
		LenderID:           lenderID,
		MaxLoanAmount:      decimal.NewFromInt(50_000),
		InterestRate:       decimal.NewFromFloat(24.0),
		RequireGuarantor:   requireGuarantor,
		AllowMultipleLoans: allowMultipleLoans,
		Active:             true,
	}
	err := repository.NewCompanyRepository(db).CreateCompany(context.Background(), company)
	assert.NoError(t, err)
	return company
}

func seedBorrower(t *testing.T, db *gorm.DB, companyID uint64) *domain.User {
	user := &domain.User{
		FullName:     "Bwalya Mutale",
		Email:        fmt.Sprintf("bwalya+%s@example.com", uuid.NewString()),
		PasswordHash: "irrelevant",
		Role:         domain.EmployeeRole,
		CompanyID:    companyID,
		Active:       true,
	}
	err := repository.NewUserRepository(db).CreateUser(context.Background(), user)
	assert.NoError(t, err)
	return user
}
