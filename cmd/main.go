package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndalamahub/ndalamahub/config"
	"github.com/ndalamahub/ndalamahub/domain"
	mysqldb "github.com/ndalamahub/ndalamahub/infra/mysql"
	redisdb "github.com/ndalamahub/ndalamahub/infra/redis"
	"github.com/ndalamahub/ndalamahub/middleware"
	"github.com/ndalamahub/ndalamahub/model"
	"github.com/ndalamahub/ndalamahub/pkg/cloudinary"
	"github.com/ndalamahub/ndalamahub/pkg/password"
	"github.com/ndalamahub/ndalamahub/pkg/ratelimiter"
	"github.com/ndalamahub/ndalamahub/presenter"
	"github.com/ndalamahub/ndalamahub/router"
	"github.com/ndalamahub/ndalamahub/telemetry"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	slog.Info("Starting application setup...")

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		slog.Error("No .env file found, using system environment variables", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	tel, err := telemetry.New(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize monitoring: %v", err))
	}

	db, err := mysqldb.InitializeDatabase()
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	redisClient := redisdb.MonitorRedis(cfg)
	if redisClient == nil {
		panic("Failed to connect to Redis (MonitorRedis returned nil)")
	}
	go redisdb.WatchConnectionRedis(&redisClient, cfg)

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
		defer cancelShutdown()

		zap.L().Info("Closing MySQL connection...")
		if err := mysqldb.Close(db, shutdownCtx); err != nil {
			zap.L().Error("Error disconnecting from MySQL", zap.Error(err))
		} else {
			zap.L().Info("Disconnected from MySQL.")
		}

		zap.L().Info("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			zap.L().Error("Error disconnecting from Redis", zap.Error(err))
		} else {
			zap.L().Info("Disconnected from Redis.")
		}

		zap.L().Info("Shutting down monitoring...")
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Error during monitoring shutdown", zap.Error(err))
		} else {
			zap.L().Info("Monitoring shutdown complete.")
		}
	}()

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migration completed!")

	SeedLender(db)
	SeedSuperUser(db)

	if err := mysqldb.Ping(db, ctx); err != nil {
		slog.Error("Database ping failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connection successful!")

	uploader, err := cloudinary.NewService(cloudinary.Config{
		CloudName: cfg.CLOUDINARY_CLOUD,
		APIKey:    cfg.CLOUDINARY_API_KEY,
		APISecret: cfg.CLOUDINARY_API_SECRET,
	})
	if err != nil {
		slog.Error("Failed to initialize Cloudinary service", "error", err)
		os.Exit(1)
	}

	rps := 100.0 / (15 * 60)
	limiter := ratelimiter.NewRateLimiter(redisClient, rps, 100, 15*time.Minute)

	pst := presenter.NewPresenter(db, redisClient, uploader, cfg.JWT_SECRET_KEY, cfg.REPORT_CACHE_TTL, tel)

	// Daily arrears sweep: mark overdue installments and apply the
	// resulting loan status overrides.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ARREARS_SWEEP_SCHEDULE, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		changed, err := pst.LoanService.SweepArrears(sweepCtx)
		if err != nil {
			zap.L().Error("Arrears sweep failed", zap.Error(err))
			return
		}
		zap.L().Info("Arrears sweep completed", zap.Int("loans_changed", changed))
	}); err != nil {
		slog.Error("Failed to schedule arrears sweep", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := router.NewRouter(pst, cfg.JWT_SECRET_KEY, limiter, middleware.NewOtelMiddleware())

	addr := ":" + cfg.SERVER_PORT

	listenErr := make(chan error, 1)

	go func() {
		zap.L().Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		} else {
			listenErr <- nil
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			zap.L().Error("Server listen error", zap.Error(err))
			os.Exit(1)
		}
	}

	zap.L().Info("Starting graceful shutdown...")
	if err := app.ShutdownWithTimeout(cfg.SHUTDOWN_TIMEOUT); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("Server shutdown timed out", zap.Duration("timeout", cfg.SHUTDOWN_TIMEOUT))
		} else {
			zap.L().Error("Server shutdown error", zap.Error(err))
		}
	} else {
		zap.L().Info("Server gracefully stopped.")
	}

	zap.L().Info("Application shutdown complete.")
}

const (
	LenderID    uint64 = 1
	SuperUserID uint64 = 1
)

func SeedLender(db *gorm.DB) {
	slog.Info("Checking for seed lender company...")

	var lender model.Company
	err := db.First(&lender, LenderID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Info("Seed lender not found, creating one...")

		newLender := model.Company{
			ID:                 LenderID,
			Name:               "NdalamaHub Lending",
			RegistrationNumber: "NH-0001",
			Type:               domain.CompanyLender,
			MaxLoanAmount:      decimal.NewFromInt(1_000_000),
			InterestRate:       decimal.NewFromFloat(24.0),
			RequireGuarantor:   false,
			AllowMultipleLoans: false,
			Active:             true,
		}

		if err := db.Create(&newLender).Error; err != nil {
			slog.Error("Failed to seed lender company", "error", err)
			os.Exit(1)
		}
		slog.Info("Seed lender company created.")
	} else if err != nil {
		slog.Error("Failed to check for seed lender", "error", err)
		os.Exit(1)
	}
}

func SeedSuperUser(db *gorm.DB) {
	slog.Info("Checking for super user...")

	var superUser model.User
	err := db.First(&superUser, SuperUserID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Info("Super user not found, creating one...")

		hash, err := password.HashPassword("changeme123")
		if err != nil {
			slog.Error("Failed to hash super user password", "error", err)
			os.Exit(1)
		}

		newSuperUser := model.User{
			ID:           SuperUserID,
			FullName:     "System Administrator",
			Email:        "admin@ndalamahub.local",
			PasswordHash: hash,
			Role:         domain.SuperUserRole,
			CompanyID:    LenderID,
			Active:       true,
		}

		if err := db.Create(&newSuperUser).Error; err != nil {
			slog.Error("Failed to seed super user", "error", err)
			os.Exit(1)
		}
		slog.Info("Super user created.")
	} else if err != nil {
		slog.Error("Failed to check for super user", "error", err)
		os.Exit(1)
	}
}
