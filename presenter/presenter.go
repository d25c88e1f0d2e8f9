package presenter

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ndalamahub/ndalamahub/handler"
	"github.com/ndalamahub/ndalamahub/pkg/cloudinary"
	"github.com/ndalamahub/ndalamahub/repository"
	"github.com/ndalamahub/ndalamahub/service"
	"github.com/ndalamahub/ndalamahub/telemetry"
)

type Presenter struct {
	AuthPresenter    *handler.AuthHandler
	CompanyPresenter *handler.CompanyHandler
	LoanPresenter    *handler.LoanHandler
	ReportPresenter  *handler.ReportHandler

	LoanService service.LoanServices
}

func NewPresenter(
	db *gorm.DB,
	cache *redis.Client,
	uploader *cloudinary.Service,
	jwtSecret string,
	reportCacheTTL time.Duration,
	tel *telemetry.OpenTelemetry,
) Presenter {
	// Repository
	loanRepositoryMeter := tel.MeterProvider.Meter("loan-repository-meter")
	loanRepositoryTracer := tel.TracerProvider.Tracer("loan-repository-tracer")
	loanRepository := repository.NewLoanRepository(
		db,
		loanRepositoryMeter,
		loanRepositoryTracer,
		tel.Log,
	)

	paymentRepository := repository.NewPaymentRepository(db)
	companyRepository := repository.NewCompanyRepository(db)
	userRepository := repository.NewUserRepository(db)

	// Service
	mediaService := service.NewMediaService(uploader)

	loanServiceMeter := tel.MeterProvider.Meter("loan-service-meter")
	loanServiceTracer := tel.TracerProvider.Tracer("loan-service-tracer")
	loanService := service.NewLoanService(
		db,
		loanRepository,
		paymentRepository,
		companyRepository,
		userRepository,
		mediaService,
		loanServiceMeter,
		loanServiceTracer,
		tel.Log,
	)

	companyService := service.NewCompanyService(db, companyRepository, tel.Log)
	authService := service.NewAuthService(db, userRepository, companyRepository, jwtSecret, tel.Log)
	reportService := service.NewReportService(loanRepository, cache, reportCacheTTL, tel.Log)

	// Handler
	authHandler := handler.NewAuthHandler(authService)
	companyHandler := handler.NewCompanyHandler(companyService)
	loanHandler := handler.NewLoanHandler(loanService)
	reportHandler := handler.NewReportHandler(reportService)

	return Presenter{
		AuthPresenter:    authHandler,
		CompanyPresenter: companyHandler,
		LoanPresenter:    loanHandler,
		ReportPresenter:  reportHandler,

		LoanService: loanService,
	}
}
