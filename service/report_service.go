package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/repository"

	"go.uber.org/zap"
)

type reportService struct {
	loanRepository repository.LoanRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	log            *zap.Logger
}

func portfolioCacheKey(companyID uint64) string {
	return fmt.Sprintf("report:portfolio:%d", companyID)
}

// Portfolio implements ReportServices.
func (r *reportService) Portfolio(ctx context.Context, companyID uint64) (*dto.PortfolioReport, error) {
	key := portfolioCacheKey(companyID)

	if cached, err := r.cache.Get(ctx, key).Bytes(); err == nil {
		var report dto.PortfolioReport
		if err := json.Unmarshal(cached, &report); err == nil {
			r.log.Debug("Portfolio report served from cache", zap.Uint64("company_id", companyID))
			return &report, nil
		}
	} else if err != redis.Nil {
		r.log.Warn("Portfolio cache read failed", zap.Error(err))
	}

	counts, err := r.loanRepository.CountByStatus(ctx, companyID)
	if err != nil {
		return nil, err
	}

	loans, err := r.loanRepository.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	report := &dto.PortfolioReport{
		CompanyID:        companyID,
		StatusCounts:     make(map[string]int64, len(counts)),
		TotalPrincipal:   decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		GeneratedAt:      time.Now(),
	}

	for status, count := range counts {
		report.StatusCounts[string(status)] = count
		report.TotalLoans += count
	}
	report.LoansInArrears = counts[domain.LoanInArrears] + counts[domain.LoanDefaulted]

	for i := range loans {
		loan := &loans[i]
		report.TotalPrincipal = report.TotalPrincipal.Add(loan.Principal)
		report.TotalPaid = report.TotalPaid.Add(loan.Summary.TotalPaid)

		switch loan.Status {
		case domain.LoanDisbursed, domain.LoanActive, domain.LoanInArrears, domain.LoanDefaulted:
			outstanding := loan.TotalPayable.Sub(loan.Summary.TotalPaid)
			if outstanding.IsPositive() {
				report.TotalOutstanding = report.TotalOutstanding.Add(outstanding)
			}
		}
	}

	if payload, err := json.Marshal(report); err == nil {
		if err := r.cache.Set(ctx, key, payload, r.cacheTTL).Err(); err != nil {
			r.log.Warn("Portfolio cache write failed", zap.Error(err))
		}
	}

	r.log.Info("Portfolio report generated",
		zap.Uint64("company_id", companyID),
		zap.Int64("total_loans", report.TotalLoans),
	)

	return report, nil
}

// ExportLoansCSV implements ReportServices.
func (r *reportService) ExportLoansCSV(ctx context.Context, companyID uint64) ([]byte, error) {
	loans, err := r.loanRepository.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"loan_number", "borrower_id", "company_id", "principal",
		"annual_rate_percent", "term_months", "periodic_payment",
		"total_payable", "total_paid", "status", "days_in_arrears",
		"applied_at", "disbursed_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for i := range loans {
		loan := &loans[i]

		disbursedAt := ""
		if loan.DisbursedAt != nil {
			disbursedAt = loan.DisbursedAt.Format(time.RFC3339)
		}

		record := []string{
			loan.LoanNumber,
			fmt.Sprintf("%d", loan.BorrowerID),
			fmt.Sprintf("%d", loan.CompanyID),
			loan.Principal.StringFixed(2),
			loan.AnnualRatePercent.StringFixed(2),
			fmt.Sprintf("%d", loan.TermMonths),
			loan.PeriodicPayment.StringFixed(2),
			loan.TotalPayable.StringFixed(2),
			loan.Summary.TotalPaid.StringFixed(2),
			string(loan.Status),
			fmt.Sprintf("%d", loan.Summary.DaysInArrears),
			loan.AppliedAt.Format(time.RFC3339),
			disbursedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	r.log.Info("Loan book exported",
		zap.Uint64("company_id", companyID),
		zap.Int("loans", len(loans)),
	)

	return buf.Bytes(), nil
}

func NewReportService(
	loanRepository repository.LoanRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	log *zap.Logger,
) ReportServices {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &reportService{
		loanRepository: loanRepository,
		cache:          cache,
		cacheTTL:       cacheTTL,
		log:            log,
	}
}
