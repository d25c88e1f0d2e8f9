package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/model"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type loanRepository struct {
	db            *gorm.DB
	meter         metric.Meter
	tracer        trace.Tracer
	log           *zap.Logger
	queryDuration metric.Float64Histogram
	queryCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	rowsWritten   metric.Int64Counter
	rowsRead      metric.Int64Counter
}

// CreateLoan implements LoanRepository.
func (l *loanRepository) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	ctx, span := l.tracer.Start(ctx, "repository.CreateLoan")
	defer span.End()

	start := time.Now()

	l.log.Debug("Create loan",
		zap.String("loan_number", loan.LoanNumber),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	l.queryCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "insert"),
			attribute.String("table", "loans"),
		),
	)

	span.SetAttributes(
		attribute.String("db.operation", "insert"),
		attribute.String("db.table", "loans"),
		attribute.String("loan.number", loan.LoanNumber),
		attribute.String("trace_id", span.SpanContext().TraceID().String()),
	)

	data := model.LoanFromEntity(loan)
	if err := l.db.WithContext(ctx).Create(&data).Error; err != nil {
		span.SetStatus(codes.Error, "Error creating loan")
		span.RecordError(err)

		l.log.Error("Error creating loan",
			zap.String("loan_number", loan.LoanNumber),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		l.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "insert"),
				attribute.String("table", "loans"),
				attribute.String("error", err.Error()),
			),
		)

		duration := float64(time.Since(start).Milliseconds())
		l.queryDuration.Record(ctx, duration,
			metric.WithAttributes(
				attribute.String("operation", "insert"),
				attribute.String("table", "loans"),
				attribute.String("status", "error"),
			),
		)

		return err
	}

	loan.ID = data.ID
	for i := range data.Schedule {
		if i < len(loan.Schedule) {
			loan.Schedule[i].ID = data.Schedule[i].ID
			loan.Schedule[i].LoanID = data.ID
		}
	}

	l.rowsWritten.Add(ctx, int64(1+len(data.Schedule)),
		metric.WithAttributes(
			attribute.String("table", "loans"),
		),
	)

	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "insert"),
			attribute.String("table", "loans"),
			attribute.String("status", "success"),
		),
	)

	l.log.Info("Loan created successfully",
		zap.String("loan_number", loan.LoanNumber),
		zap.Uint64("loan_id", data.ID),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	span.SetStatus(codes.Ok, "Loan created successfully")
	span.SetAttributes(
		attribute.String("loan.id", fmt.Sprintf("%d", data.ID)),
	)

	return nil
}

// FindByID implements LoanRepository.
func (l *loanRepository) FindByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "repository.FindByID")
	defer span.End()

	start := time.Now()

	l.log.Debug("Find loan by ID",
		zap.Uint64("id", id),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	l.queryCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "select"),
			attribute.String("table", "loans"),
		),
	)

	span.SetAttributes(
		attribute.String("db.operation", "select"),
		attribute.String("db.table", "loans"),
		attribute.String("loan.id", fmt.Sprintf("%d", id)),
		attribute.String("trace_id", span.SpanContext().TraceID().String()),
	)

	var loan model.Loan
	err := l.db.WithContext(ctx).
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "Loan not found")

			l.log.Info("Loan not found by ID",
				zap.Uint64("id", id),
				zap.String("trace_id", span.SpanContext().TraceID().String()),
			)

			duration := float64(time.Since(start).Milliseconds())
			l.queryDuration.Record(ctx, duration,
				metric.WithAttributes(
					attribute.String("operation", "select"),
					attribute.String("table", "loans"),
					attribute.String("status", "not_found"),
				),
			)

			return nil, nil
		}

		span.SetStatus(codes.Error, "Error finding loan by ID")
		span.RecordError(err)

		l.log.Error("Error finding loan by ID",
			zap.Uint64("id", id),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		l.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "select"),
				attribute.String("table", "loans"),
				attribute.String("error", err.Error()),
			),
		)

		duration := float64(time.Since(start).Milliseconds())
		l.queryDuration.Record(ctx, duration,
			metric.WithAttributes(
				attribute.String("operation", "select"),
				attribute.String("table", "loans"),
				attribute.String("status", "error"),
			),
		)

		return nil, err
	}

	l.rowsRead.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("table", "loans"),
		),
	)

	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "select"),
			attribute.String("table", "loans"),
			attribute.String("status", "success"),
		),
	)

	l.log.Info("Loan found by ID",
		zap.Uint64("id", id),
		zap.String("loan_number", loan.LoanNumber),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	span.SetStatus(codes.Ok, "Loan found by ID")
	span.SetAttributes(
		attribute.String("loan.number", loan.LoanNumber),
	)

	return model.LoanToEntity(&loan), nil
}

// FindByIDWithLock implements LoanRepository.
func (l *loanRepository) FindByIDWithLock(ctx context.Context, id uint64) (*domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "repository.FindByIDWithLock")
	defer span.End()

	start := time.Now()

	l.log.Debug("Find loan by ID with lock",
		zap.Uint64("id", id),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	l.queryCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "select_for_update"),
			attribute.String("table", "loans"),
		),
	)

	span.SetAttributes(
		attribute.String("db.operation", "select_for_update"),
		attribute.String("db.table", "loans"),
		attribute.String("loan.id", fmt.Sprintf("%d", id)),
		attribute.String("trace_id", span.SpanContext().TraceID().String()),
	)

	var loan model.Loan

	// SELECT ... FOR UPDATE via Clauses(clause.Locking{Strength: "UPDATE"})
	err := l.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "Loan not found")

			l.log.Info("Loan not found by ID with lock",
				zap.Uint64("id", id),
				zap.String("trace_id", span.SpanContext().TraceID().String()),
			)

			duration := float64(time.Since(start).Milliseconds())
			l.queryDuration.Record(ctx, duration,
				metric.WithAttributes(
					attribute.String("operation", "select_for_update"),
					attribute.String("table", "loans"),
					attribute.String("status", "not_found"),
				),
			)

			return nil, nil
		}

		span.SetStatus(codes.Error, "Error finding loan by ID with lock")
		span.RecordError(err)

		l.log.Error("Error finding loan by ID with lock",
			zap.Uint64("id", id),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		l.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "select_for_update"),
				attribute.String("table", "loans"),
				attribute.String("error", err.Error()),
			),
		)

		duration := float64(time.Since(start).Milliseconds())
		l.queryDuration.Record(ctx, duration,
			metric.WithAttributes(
				attribute.String("operation", "select_for_update"),
				attribute.String("table", "loans"),
				attribute.String("status", "error"),
			),
		)

		return nil, err
	}

	l.rowsRead.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("table", "loans"),
		),
	)

	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "select_for_update"),
			attribute.String("table", "loans"),
			attribute.String("status", "success"),
		),
	)

	l.log.Info("Loan found by ID with lock",
		zap.Uint64("id", id),
		zap.String("loan_number", loan.LoanNumber),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	span.SetStatus(codes.Ok, "Loan found by ID with lock")

	return model.LoanToEntity(&loan), nil
}

// FindPaginated implements LoanRepository.
func (l *loanRepository) FindPaginated(ctx context.Context, params domain.Params) ([]domain.Loan, int64, error) {
	ctx, span := l.tracer.Start(ctx, "repository.FindPaginated")
	defer span.End()

	start := time.Now()

	l.log.Debug("Find loans paginated",
		zap.Int("page", params.Page),
		zap.Int("limit", params.Limit),
		zap.String("status", params.Status),
		zap.Uint64("company_id", params.CompanyID),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	l.queryCount.Add(ctx, 2, // Count query + Select query
		metric.WithAttributes(
			attribute.String("operation", "select_paginated"),
			attribute.String("table", "loans"),
		),
	)

	span.SetAttributes(
		attribute.String("db.operation", "select_paginated"),
		attribute.String("db.table", "loans"),
		attribute.Int("pagination.page", params.Page),
		attribute.Int("pagination.limit", params.Limit),
		attribute.String("filter.status", params.Status),
		attribute.String("trace_id", span.SpanContext().TraceID().String()),
	)

	var loans []model.Loan
	var total int64

	query := l.db.WithContext(ctx).Model(&model.Loan{})
	countQuery := l.db.WithContext(ctx).Model(&model.Loan{})

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
		countQuery = countQuery.Where("status = ?", params.Status)
	}
	if params.CompanyID != 0 {
		query = query.Where("company_id = ?", params.CompanyID)
		countQuery = countQuery.Where("company_id = ?", params.CompanyID)
	}

	if err := countQuery.Count(&total).Error; err != nil {
		span.SetStatus(codes.Error, "Error counting loans")
		span.RecordError(err)

		l.log.Error("Error counting loans",
			zap.String("status", params.Status),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		l.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "count"),
				attribute.String("table", "loans"),
				attribute.String("error", err.Error()),
			),
		)

		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	query = query.Limit(params.Limit).Offset(offset).Order("created_at DESC")

	if err := query.Find(&loans).Error; err != nil {
		span.SetStatus(codes.Error, "Error finding loans paginated")
		span.RecordError(err)

		l.log.Error("Error finding loans paginated",
			zap.Int("page", params.Page),
			zap.Int("limit", params.Limit),
			zap.String("status", params.Status),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		l.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "select_paginated"),
				attribute.String("table", "loans"),
				attribute.String("error", err.Error()),
			),
		)

		return nil, 0, err
	}

	l.rowsRead.Add(ctx, int64(len(loans)),
		metric.WithAttributes(
			attribute.String("table", "loans"),
		),
	)

	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "select_paginated"),
			attribute.String("table", "loans"),
			attribute.String("status", "success"),
		),
	)

	l.log.Info("Loans found paginated",
		zap.Int("page", params.Page),
		zap.Int("limit", params.Limit),
		zap.String("status", params.Status),
		zap.Int64("total", total),
		zap.Int("retrieved", len(loans)),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	span.SetStatus(codes.Ok, "Loans found paginated")
	span.SetAttributes(
		attribute.Int64("result.total", total),
		attribute.Int("result.retrieved", len(loans)),
	)

	result := make([]domain.Loan, 0, len(loans))
	for i := range loans {
		result = append(result, *model.LoanToEntity(&loans[i]))
	}

	return result, total, nil
}

// UpdateLoan implements LoanRepository.
func (l *loanRepository) UpdateLoan(ctx context.Context, loan *domain.Loan) error {
	ctx, span := l.tracer.Start(ctx, "repository.UpdateLoan")
	defer span.End()

	start := time.Now()

	l.log.Debug("Update loan",
		zap.Uint64("loan_id", loan.ID),
		zap.String("status", string(loan.Status)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	l.queryCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", "update"),
			attribute.String("table", "loans"),
		),
	)

	span.SetAttributes(
		attribute.String("db.operation", "update"),
		attribute.String("db.table", "loans"),
		attribute.String("loan.id", fmt.Sprintf("%d", loan.ID)),
		attribute.String("loan.status", string(loan.Status)),
		attribute.String("trace_id", span.SpanContext().TraceID().String()),
	)

	data := model.LoanFromEntity(loan)

	// FullSaveAssociations writes the installment rows together with
	// the loan row, so the schedule never drifts from the loan state.
	err := l.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(&data).Error
	if err != nil {
		span.SetStatus(codes.Error, "Error updating loan")
		span.RecordError(err)

		l.log.Error("Error updating loan",
			zap.Uint64("loan_id", loan.ID),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)

		l.errorCount.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("operation", "update"),
				attribute.String("table", "loans"),
				attribute.String("error", err.Error()),
			),
		)

		duration := float64(time.Since(start).Milliseconds())
		l.queryDuration.Record(ctx, duration,
			metric.WithAttributes(
				attribute.String("operation", "update"),
				attribute.String("table", "loans"),
				attribute.String("status", "error"),
			),
		)

		return err
	}

	l.rowsWritten.Add(ctx, int64(1+len(data.Schedule)),
		metric.WithAttributes(
			attribute.String("table", "loans"),
		),
	)

	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("operation", "update"),
			attribute.String("table", "loans"),
			attribute.String("status", "success"),
		),
	)

	l.log.Info("Loan updated successfully",
		zap.Uint64("loan_id", loan.ID),
		zap.String("status", string(loan.Status)),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	span.SetStatus(codes.Ok, "Loan updated successfully")

	return nil
}

// FindOpenByBorrower implements LoanRepository.
func (l *loanRepository) FindOpenByBorrower(ctx context.Context, borrowerID uint64) ([]domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "repository.FindOpenByBorrower")
	defer span.End()

	closed := []domain.LoanStatus{
		domain.LoanRejected,
		domain.LoanCompleted,
		domain.LoanCancelled,
	}

	var loans []model.Loan
	err := l.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Where("status NOT IN ?", closed).
		Find(&loans).Error
	if err != nil {
		span.SetStatus(codes.Error, "Error finding open loans by borrower")
		span.RecordError(err)
		return nil, err
	}

	result := make([]domain.Loan, 0, len(loans))
	for i := range loans {
		result = append(result, *model.LoanToEntity(&loans[i]))
	}

	span.SetStatus(codes.Ok, "Open loans found by borrower")
	return result, nil
}

// FindInRepayment implements LoanRepository.
func (l *loanRepository) FindInRepayment(ctx context.Context) ([]domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "repository.FindInRepayment")
	defer span.End()

	repaying := []domain.LoanStatus{
		domain.LoanDisbursed,
		domain.LoanActive,
		domain.LoanInArrears,
		domain.LoanDefaulted,
	}

	var loans []model.Loan
	err := l.db.WithContext(ctx).
		Where("status IN ?", repaying).
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Find(&loans).Error
	if err != nil {
		span.SetStatus(codes.Error, "Error finding loans in repayment")
		span.RecordError(err)

		l.log.Error("Error finding loans in repayment",
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)
		return nil, err
	}

	result := make([]domain.Loan, 0, len(loans))
	for i := range loans {
		result = append(result, *model.LoanToEntity(&loans[i]))
	}

	span.SetStatus(codes.Ok, "Loans in repayment found")
	span.SetAttributes(attribute.Int("result.retrieved", len(result)))

	return result, nil
}

// CountByNumberPrefix implements LoanRepository.
func (l *loanRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	ctx, span := l.tracer.Start(ctx, "repository.CountByNumberPrefix")
	defer span.End()

	var count int64
	err := l.db.WithContext(ctx).
		Model(&model.Loan{}).
		Where("loan_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		span.SetStatus(codes.Error, "Error counting loans by number prefix")
		span.RecordError(err)
		return 0, err
	}

	span.SetStatus(codes.Ok, "Loans counted by number prefix")
	return count, nil
}

// FindAllByCompany implements LoanRepository.
func (l *loanRepository) FindAllByCompany(ctx context.Context, companyID uint64) ([]domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "repository.FindAllByCompany")
	defer span.End()

	var loans []model.Loan
	query := l.db.WithContext(ctx).Model(&model.Loan{}).Order("created_at ASC")
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	if err := query.Find(&loans).Error; err != nil {
		span.SetStatus(codes.Error, "Error finding loans by company")
		span.RecordError(err)
		return nil, err
	}

	result := make([]domain.Loan, 0, len(loans))
	for i := range loans {
		result = append(result, *model.LoanToEntity(&loans[i]))
	}

	span.SetStatus(codes.Ok, "Loans found by company")
	return result, nil
}

// CountByStatus implements LoanRepository.
func (l *loanRepository) CountByStatus(ctx context.Context, companyID uint64) (map[domain.LoanStatus]int64, error) {
	ctx, span := l.tracer.Start(ctx, "repository.CountByStatus")
	defer span.End()

	type statusCount struct {
		Status domain.LoanStatus
		Count  int64
	}

	var rows []statusCount
	query := l.db.WithContext(ctx).
		Model(&model.Loan{}).
		Select("status, count(*) as count").
		Group("status")
	if companyID != 0 {
		query = query.Where("company_id = ?", companyID)
	}
	if err := query.Find(&rows).Error; err != nil {
		span.SetStatus(codes.Error, "Error counting loans by status")
		span.RecordError(err)
		return nil, err
	}

	counts := make(map[domain.LoanStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	span.SetStatus(codes.Ok, "Loans counted by status")
	return counts, nil
}

func NewLoanRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) LoanRepository {
	queryDuration, _ := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Duration of database queries"),
		metric.WithUnit("ms"),
	)

	queryCount, _ := meter.Int64Counter(
		"db.query.count",
		metric.WithDescription("Number of database queries"),
		metric.WithUnit("{query}"),
	)

	errorCount, _ := meter.Int64Counter(
		"db.error.count",
		metric.WithDescription("Number of database errors"),
		metric.WithUnit("{error}"),
	)

	rowsWritten, _ := meter.Int64Counter(
		"db.rows.written",
		metric.WithDescription("Number of rows written to the database"),
		metric.WithUnit("{row}"),
	)

	rowsRead, _ := meter.Int64Counter(
		"db.rows.read",
		metric.WithDescription("Number of rows read from the database"),
		metric.WithUnit("{row}"),
	)

	return &loanRepository{
		db:            db,
		meter:         meter,
		tracer:        tracer,
		log:           log,
		queryDuration: queryDuration,
		queryCount:    queryCount,
		errorCount:    errorCount,
		rowsWritten:   rowsWritten,
		rowsRead:      rowsRead,
	}
}
