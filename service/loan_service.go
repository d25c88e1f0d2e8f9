package service

import (
	"context"
	"fmt"
	"math"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ndalamahub/ndalamahub/domain"
	"github.com/ndalamahub/ndalamahub/dto"
	"github.com/ndalamahub/ndalamahub/engine"
	"github.com/ndalamahub/ndalamahub/pkg/common"
	"github.com/ndalamahub/ndalamahub/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type loanService struct {
	db                *gorm.DB
	loanRepository    repository.LoanRepository
	paymentRepository repository.PaymentRepository
	companyRepository repository.CompanyRepository
	userRepository    repository.UserRepository
	media             Media

	meter  metric.Meter
	tracer trace.Tracer
	log    *zap.Logger

	loansCreated     metric.Int64Counter
	paymentsRecorded metric.Int64Counter
	statusChanges    metric.Int64Counter
}

// Apply implements LoanServices.
func (l *loanService) Apply(ctx context.Context, borrowerID uint64, req dto.ApplyLoan) (*domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "service.Apply")
	defer span.End()

	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	userTx := repository.NewUserRepository(tx)
	borrower, err := userTx.FindByID(ctx, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("error finding borrower: %w", err)
	}
	if borrower == nil {
		return nil, common.ErrUserNotFound
	}

	companyTx := repository.NewCompanyRepository(tx)
	company, err := companyTx.FindByID(ctx, borrower.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("error finding company: %w", err)
	}
	if company == nil {
		return nil, common.ErrCompanyNotFound
	}

	// Company lending policy gates the application before any
	// amortization work happens.
	principal := decimal.NewFromFloat(req.Principal)
	if principal.GreaterThan(company.MaxLoanAmount) {
		span.SetStatus(codes.Error, "Loan limit exceeded")
		return nil, common.ErrLoanLimitExceeded
	}

	if !company.AllowMultipleLoans {
		loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
		open, err := loanTx.FindOpenByBorrower(ctx, borrowerID)
		if err != nil {
			return nil, fmt.Errorf("error checking open loans: %w", err)
		}
		if len(open) > 0 {
			span.SetStatus(codes.Error, "Active loan exists")
			return nil, common.ErrActiveLoanExists
		}
	}

	loan := dto.ApplyLoanToEntity(req, borrowerID, borrower.CompanyID)
	loan.AnnualRatePercent = company.InterestRate
	loan.AppliedAt = time.Now()

	amort, err := engine.ComputeAmortization(loan.Principal, loan.AnnualRatePercent, loan.TermMonths)
	if err != nil {
		return nil, err
	}
	loan.PeriodicPayment = amort.PeriodicPayment
	loan.TotalInterest = amort.TotalInterest
	loan.TotalPayable = amort.TotalPayable

	schedule, err := engine.GenerateSchedule(
		loan.Principal, loan.AnnualRatePercent, loan.TermMonths,
		loan.PeriodicPayment, loan.AppliedAt, engine.ThirtyDayPeriods,
	)
	if err != nil {
		return nil, err
	}
	loan.Schedule = schedule

	loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	number, err := l.nextLoanNumber(ctx, loanTx, loan.AppliedAt)
	if err != nil {
		return nil, err
	}
	loan.LoanNumber = number

	if err := loanTx.CreateLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.loansCreated.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("company", fmt.Sprintf("%d", loan.CompanyID)),
		),
	)

	l.log.Info("Loan application created",
		zap.String("loan_number", loan.LoanNumber),
		zap.Uint64("borrower_id", borrowerID),
		zap.String("principal", loan.Principal.String()),
		zap.Int("term_months", loan.TermMonths),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	span.SetStatus(codes.Ok, "Loan application created")
	span.SetAttributes(attribute.String("loan.number", loan.LoanNumber))

	return loan, nil
}

// nextLoanNumber allocates LN<year><seq>, where seq restarts each year.
func (l *loanService) nextLoanNumber(ctx context.Context, repo repository.LoanRepository, at time.Time) (string, error) {
	prefix := fmt.Sprintf("LN%d", at.Year())
	count, err := repo.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to allocate loan number: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// GetLoan implements LoanServices.
func (l *loanService) GetLoan(ctx context.Context, id uint64) (*domain.Loan, error) {
	loan, err := l.loanRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, common.ErrLoanNotFound
	}

	return loan, nil
}

// ListLoans implements LoanServices.
func (l *loanService) ListLoans(ctx context.Context, params domain.Params) (*domain.Paginated, error) {
	loans, total, err := l.loanRepository.FindPaginated(ctx, params)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return &domain.Paginated{
		Data:       loans,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}, nil
}

// Approve implements LoanServices.
func (l *loanService) Approve(ctx context.Context, id uint64) error {
	return l.transitionLoan(ctx, id, domain.LoanApproved, "", func(loan *domain.Loan) {
		now := time.Now()
		loan.ApprovedAt = &now
	})
}

// Reject implements LoanServices.
func (l *loanService) Reject(ctx context.Context, id uint64, req dto.RejectLoan) error {
	return l.transitionLoan(ctx, id, domain.LoanRejected, req.Reason, nil)
}

// Cancel implements LoanServices.
func (l *loanService) Cancel(ctx context.Context, id uint64) error {
	return l.transitionLoan(ctx, id, domain.LoanCancelled, "", nil)
}

// transitionLoan moves a locked loan through the state machine and
// persists the result.
func (l *loanService) transitionLoan(ctx context.Context, id uint64, to domain.LoanStatus, reason string, mutate func(*domain.Loan)) error {
	ctx, span := l.tracer.Start(ctx, "service.TransitionLoan")
	defer span.End()

	span.SetAttributes(
		attribute.String("loan.id", fmt.Sprintf("%d", id)),
		attribute.String("loan.target_status", string(to)),
	)

	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	loan, err := loanTx.FindByIDWithLock(ctx, id)
	if err != nil {
		return fmt.Errorf("error finding loan: %w", err)
	}
	if loan == nil {
		return common.ErrLoanNotFound
	}

	from := loan.Status
	if err := engine.Transition(loan, to, reason); err != nil {
		span.SetStatus(codes.Error, "Illegal loan transition")
		return err
	}
	if mutate != nil {
		mutate(loan)
	}

	if err := loanTx.UpdateLoan(ctx, loan); err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.statusChanges.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", string(from)),
			attribute.String("to", string(to)),
		),
	)

	l.log.Info("Loan status changed",
		zap.Uint64("loan_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	span.SetStatus(codes.Ok, "Loan status changed")
	return nil
}

// Disburse implements LoanServices.
func (l *loanService) Disburse(ctx context.Context, id uint64) error {
	ctx, span := l.tracer.Start(ctx, "service.Disburse")
	defer span.End()

	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	loan, err := loanTx.FindByIDWithLock(ctx, id)
	if err != nil {
		return fmt.Errorf("error finding loan: %w", err)
	}
	if loan == nil {
		return common.ErrLoanNotFound
	}

	companyTx := repository.NewCompanyRepository(tx)
	company, err := companyTx.FindByID(ctx, loan.CompanyID)
	if err != nil {
		return fmt.Errorf("error finding company: %w", err)
	}
	if company == nil {
		return common.ErrCompanyNotFound
	}

	if err := engine.CheckDisbursement(loan, company.RequireGuarantor); err != nil {
		span.SetStatus(codes.Error, "Disbursement precondition failed")
		return err
	}

	// Rebase the due dates onto the disbursement date while the
	// schedule is still unlocked, then lock it for good.
	now := time.Now()
	if err := engine.Reschedule(loan, now, engine.ThirtyDayPeriods); err != nil {
		return err
	}

	if err := engine.Transition(loan, domain.LoanDisbursed, ""); err != nil {
		return err
	}
	loan.DisbursedAt = &now
	if err := engine.Transition(loan, domain.LoanActive, ""); err != nil {
		return err
	}

	if err := loanTx.UpdateLoan(ctx, loan); err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.statusChanges.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("from", string(domain.LoanApproved)),
			attribute.String("to", string(domain.LoanActive)),
		),
	)

	l.log.Info("Loan disbursed",
		zap.Uint64("loan_id", id),
		zap.String("loan_number", loan.LoanNumber),
		zap.Time("disbursed_at", now),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	span.SetStatus(codes.Ok, "Loan disbursed")
	return nil
}

// RecordPayment implements LoanServices.
func (l *loanService) RecordPayment(ctx context.Context, id uint64, recordedBy uint64, req dto.RecordPayment) (*domain.Loan, error) {
	ctx, span := l.tracer.Start(ctx, "service.RecordPayment")
	defer span.End()

	span.SetAttributes(
		attribute.String("loan.id", fmt.Sprintf("%d", id)),
		attribute.Int("payment.installment", req.InstallmentNumber),
	)

	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	// The row lock serializes concurrent payments against one loan.
	loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	loan, err := loanTx.FindByIDWithLock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding loan: %w", err)
	}
	if loan == nil {
		return nil, common.ErrLoanNotFound
	}

	paymentTx := repository.NewPaymentRepository(tx)
	existing, err := paymentTx.FindByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("error checking payment reference: %w", err)
	}
	if existing != nil {
		span.SetStatus(codes.Error, "Duplicate payment reference")
		return nil, common.ErrDuplicatePayment
	}

	amount := decimal.NewFromFloat(req.Amount)
	if err := engine.ApplyPayment(loan, req.InstallmentNumber, amount, time.Now(), engine.OverpaymentAllow); err != nil {
		span.SetStatus(codes.Error, "Payment application failed")
		return nil, err
	}

	payment := &domain.Payment{
		LoanID:            loan.ID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            amount,
		Reference:         reference,
		RecordedBy:        recordedBy,
	}
	if err := paymentTx.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := loanTx.UpdateLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.paymentsRecorded.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", string(loan.Status)),
		),
	)

	l.log.Info("Payment recorded",
		zap.Uint64("loan_id", id),
		zap.Int("installment", req.InstallmentNumber),
		zap.String("amount", amount.String()),
		zap.String("reference", reference),
		zap.String("loan_status", string(loan.Status)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	span.SetStatus(codes.Ok, "Payment recorded")
	return loan, nil
}

// GetSchedule implements LoanServices.
func (l *loanService) GetSchedule(ctx context.Context, id uint64) ([]domain.Installment, error) {
	loan, err := l.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	return loan.Schedule, nil
}

// GetSummary implements LoanServices.
func (l *loanService) GetSummary(ctx context.Context, id uint64) (*engine.LoanSummary, error) {
	loan, err := l.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := engine.Summarize(loan)
	return &summary, nil
}

// AttachGuarantorDocument implements LoanServices.
func (l *loanService) AttachGuarantorDocument(ctx context.Context, id uint64, file *multipart.FileHeader) (string, error) {
	ctx, span := l.tracer.Start(ctx, "service.AttachGuarantorDocument")
	defer span.End()

	url, err := l.media.Upload(ctx, file)
	if err != nil {
		span.SetStatus(codes.Error, "Document upload failed")
		return "", fmt.Errorf("failed to upload guarantor document: %w", err)
	}

	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	loan, err := loanTx.FindByIDWithLock(ctx, id)
	if err != nil {
		return "", fmt.Errorf("error finding loan: %w", err)
	}
	if loan == nil {
		return "", common.ErrLoanNotFound
	}

	loan.Guarantor.DocumentURL = url
	if err := loanTx.UpdateLoan(ctx, loan); err != nil {
		return "", fmt.Errorf("failed to update loan: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.log.Info("Guarantor document attached",
		zap.Uint64("loan_id", id),
		zap.String("url", url),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	span.SetStatus(codes.Ok, "Guarantor document attached")
	return url, nil
}

// SweepArrears implements LoanServices.
func (l *loanService) SweepArrears(ctx context.Context) (int, error) {
	ctx, span := l.tracer.Start(ctx, "service.SweepArrears")
	defer span.End()

	loans, err := l.loanRepository.FindInRepayment(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Error loading repaying loans")
		return 0, err
	}

	now := time.Now()
	changed := 0

	for i := range loans {
		loan := &loans[i]

		flipped := engine.MarkOverdue(loan, now)
		arrears := engine.EvaluateArrears(loan, now)

		loan.Summary.DaysInArrears = arrears.DaysInArrears
		loan.Summary.MissedPaymentsCount = arrears.MissedCount

		transitioned := false
		if arrears.Override != "" && arrears.Override != loan.Status {
			if err := applyArrearsOverride(loan, arrears.Override); err != nil {
				l.log.Error("Arrears transition rejected",
					zap.Uint64("loan_id", loan.ID),
					zap.String("from", string(loan.Status)),
					zap.String("to", string(arrears.Override)),
					zap.Error(err),
				)
			} else {
				transitioned = true
			}
		}

		if flipped == 0 && !transitioned {
			continue
		}

		if err := l.persistSweptLoan(ctx, loan.ID, loan); err != nil {
			l.log.Error("Failed to persist swept loan",
				zap.Uint64("loan_id", loan.ID),
				zap.Error(err),
			)
			continue
		}
		changed++

		if transitioned {
			l.statusChanges.Add(ctx, 1,
				metric.WithAttributes(
					attribute.String("to", string(loan.Status)),
					attribute.String("cause", "arrears_sweep"),
				),
			)
		}
	}

	l.log.Info("Arrears sweep finished",
		zap.Int("loans_inspected", len(loans)),
		zap.Int("loans_changed", changed),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	span.SetStatus(codes.Ok, "Arrears sweep finished")
	span.SetAttributes(
		attribute.Int("sweep.inspected", len(loans)),
		attribute.Int("sweep.changed", changed),
	)

	return changed, nil
}

// applyArrearsOverride moves a loan to the status its arrears position
// dictates. A loan that blew past the default threshold between sweeps
// still steps through in_arrears on its way down.
func applyArrearsOverride(loan *domain.Loan, to domain.LoanStatus) error {
	if to == domain.LoanDefaulted && loan.Status == domain.LoanActive {
		if err := engine.Transition(loan, domain.LoanInArrears, ""); err != nil {
			return err
		}
	}
	return engine.Transition(loan, to, "")
}

// persistSweptLoan re-reads the loan under lock and reapplies the sweep
// result, so a payment landing mid-sweep is not overwritten.
func (l *loanService) persistSweptLoan(ctx context.Context, id uint64, swept *domain.Loan) error {
	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	loanTx := repository.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	current, err := loanTx.FindByIDWithLock(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return common.ErrLoanNotFound
	}

	now := time.Now()
	engine.MarkOverdue(current, now)
	arrears := engine.EvaluateArrears(current, now)
	current.Summary.DaysInArrears = arrears.DaysInArrears
	current.Summary.MissedPaymentsCount = arrears.MissedCount
	if arrears.Override != "" && arrears.Override != current.Status {
		if err := applyArrearsOverride(current, arrears.Override); err != nil {
			return err
		}
	}

	if err := loanTx.UpdateLoan(ctx, current); err != nil {
		return err
	}

	*swept = *current
	return tx.Commit().Error
}

func NewLoanService(
	db *gorm.DB,
	loanRepository repository.LoanRepository,
	paymentRepository repository.PaymentRepository,
	companyRepository repository.CompanyRepository,
	userRepository repository.UserRepository,
	media Media,

	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) LoanServices {
	loansCreated, _ := meter.Int64Counter(
		"loans.created",
		metric.WithDescription("Number of loan applications created"),
		metric.WithUnit("{loan}"),
	)

	paymentsRecorded, _ := meter.Int64Counter(
		"loans.payments.recorded",
		metric.WithDescription("Number of payments recorded against loans"),
		metric.WithUnit("{payment}"),
	)

	statusChanges, _ := meter.Int64Counter(
		"loans.status.changes",
		metric.WithDescription("Number of loan status transitions"),
		metric.WithUnit("{transition}"),
	)

	return &loanService{
		db:                db,
		loanRepository:    loanRepository,
		paymentRepository: paymentRepository,
		companyRepository: companyRepository,
		userRepository:    userRepository,
		media:             media,

		meter:  meter,
		tracer: tracer,
		log:    log,

		loansCreated:     loansCreated,
		paymentsRecorded: paymentsRecorded,
		statusChanges:    statusChanges,
	}
}
