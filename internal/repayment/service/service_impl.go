package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/vendorcredit/internal/clock"
	"github.com/smallbiznis/vendorcredit/internal/config"
	historydomain "github.com/smallbiznis/vendorcredit/internal/credithistory/domain"
	"github.com/smallbiznis/vendorcredit/internal/events"
	"github.com/smallbiznis/vendorcredit/internal/lock"
	"github.com/smallbiznis/vendorcredit/internal/observability/metrics"
	"github.com/smallbiznis/vendorcredit/internal/observability/tracing"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	"github.com/smallbiznis/vendorcredit/internal/retry"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/smallbiznis/vendorcredit/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	vendorLockPrefix   = "vendor-history:"
	lockTTL            = 30 * time.Second
	lockAcquireTimeout = 10 * time.Second
	dueAfterDays       = 30
	defaultPaymentMode = "online"
	defaultPageSize    = 10
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      repaymentdomain.Repository
	Purchases purchasedomain.Repository
	Tiers     tierdomain.Service
	History   historydomain.Service
	Locker    lock.Locker
	Policy    *config.CreditPolicyHolder
	Publisher events.Publisher
	Clock     clock.Clock

	Metrics       *metrics.Metrics       `optional:"true"`
	CreditMetrics *metrics.CreditMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          repaymentdomain.Repository
	purchases     purchasedomain.Repository
	tiers         tierdomain.Service
	history       historydomain.Service
	locker        lock.Locker
	policy        *config.CreditPolicyHolder
	publisher     events.Publisher
	clock         clock.Clock
	metrics       *metrics.Metrics
	creditMetrics *metrics.CreditMetrics
	retryPolicy   retry.Policy
}

func New(p Params) repaymentdomain.Service {
	s := &Service{
		db:            p.DB,
		log:           p.Log.Named("repayment.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		purchases:     p.Purchases,
		tiers:         p.Tiers,
		history:       p.History,
		locker:        p.Locker,
		policy:        p.Policy,
		publisher:     p.Publisher,
		clock:         p.Clock,
		metrics:       p.Metrics,
		creditMetrics: p.CreditMetrics,
	}
	s.retryPolicy = retry.DefaultPolicy()
	s.retryPolicy.Retryable = func(err error) bool {
		return errors.Is(err, historydomain.ErrVersionConflict)
	}
	s.retryPolicy.OnRetry = func(attempt int, err error) {
		s.creditMetrics.RecordRetry("repayment.submit")
		s.log.Warn("retrying repayment", zap.Int("attempt", attempt), zap.Error(err))
	}
	return s
}

func (s *Service) Calculate(ctx context.Context, req repaymentdomain.CalculateRequest) (*repaymentdomain.Calculation, error) {
	purchase, err := s.outstandingPurchase(ctx, s.db, req.VendorID, req.PurchaseID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.tiers.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	at := s.clock.Now()
	if req.At != nil {
		at = req.At.UTC()
	}

	calc, err := s.calculator().Calculate(toPurchase(purchase), snapshot, at)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCalculation(ctx, string(calc.TierType))
	return &calc, nil
}

func (s *Service) Project(ctx context.Context, req repaymentdomain.ProjectRequest) (*repaymentdomain.Projection, error) {
	offsets, err := repaymentdomain.ParseOffsets(req.Offsets)
	if err != nil {
		return nil, err
	}
	purchase, err := s.outstandingPurchase(ctx, s.db, req.VendorID, req.PurchaseID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.tiers.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	projection, err := s.calculator().Project(toPurchase(purchase), snapshot, offsets, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return &projection, nil
}

// Submit holds the vendor lock for the whole read-modify-write of the credit
// history. The optimistic version check on the history row still catches
// writers that bypass the lock; those conflicts rerun the transaction.
func (s *Service) Submit(ctx context.Context, req repaymentdomain.SubmitRequest) (*repaymentdomain.SubmitResult, error) {
	vendorID := strings.TrimSpace(req.VendorID)
	if vendorID == "" {
		return nil, repaymentdomain.ErrInvalidVendor
	}
	purchaseID, err := parseID(req.PurchaseID)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, repaymentdomain.ErrInvalidAmount
	}

	ctx, span := tracing.StartSpan(ctx, "repayment.submit")
	defer span.End()

	release, err := s.lockVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Calculations tolerate a slightly stale tier set, so the snapshot is
	// read once, outside the transaction.
	snapshot, err := s.tiers.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var result *repaymentdomain.SubmitResult
	err = retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			result, err = s.submitInTx(ctx, tx, vendorID, purchaseID, snapshot, req)
			return err
		})
	})
	if err != nil {
		s.logSubmitFailure(vendorID, purchaseID, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("tier.type", string(result.Calculation.TierType)))
	s.metrics.RecordRepayment(ctx, string(result.Calculation.TierType))
	s.log.Info("repayment finalized",
		zap.String("repayment_id", result.Repayment.ID.String()),
		zap.String("number", result.Repayment.Number),
		zap.String("vendor_id", vendorID),
		zap.String("purchase_id", purchaseID.String()),
		zap.String("tier_type", string(result.Calculation.TierType)),
		zap.String("final_amount", result.Repayment.FinalAmount.StringFixed(2)),
		zap.Int("days_elapsed", result.Calculation.DaysElapsed),
		zap.Int("credit_score", result.CreditHistory.CreditScore),
	)
	s.publishCompleted(ctx, result)
	return result, nil
}

func (s *Service) submitInTx(
	ctx context.Context,
	tx *gorm.DB,
	vendorID string,
	purchaseID snowflake.ID,
	snapshot tierdomain.Snapshot,
	req repaymentdomain.SubmitRequest,
) (*repaymentdomain.SubmitResult, error) {
	purchase, err := s.purchases.FindByID(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}
	if err := checkPurchase(purchase, vendorID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	calc, err := s.calculator().Calculate(toPurchase(purchase), snapshot, now)
	if err != nil {
		return nil, err
	}

	paid := calc.FinalPayable
	if req.Amount != nil {
		tolerance := decimal.NewFromFloat(s.policy.Get().Repayment.AmountTolerance)
		diff := req.Amount.Sub(calc.FinalPayable).Abs()
		if diff.GreaterThan(tolerance) {
			return nil, &repaymentdomain.AmountMismatchError{
				Expected:   calc.FinalPayable,
				Provided:   *req.Amount,
				Difference: diff,
			}
		}
		paid = *req.Amount
	}

	repayment := s.newRepayment(purchase, calc, paid, req, now)
	if err := s.repo.Insert(ctx, tx, repayment); err != nil {
		return nil, fmt.Errorf("insert repayment: %w", err)
	}

	if err := s.purchases.MarkRepaid(ctx, tx, purchase.ID, now); err != nil {
		if errors.Is(err, purchasedomain.ErrNotOutstanding) {
			return nil, repaymentdomain.ErrAlreadyRepaid
		}
		return nil, fmt.Errorf("mark purchase repaid: %w", err)
	}

	history, err := s.history.Apply(ctx, tx, vendorID, historydomain.RepaymentOutcome{
		BaseAmount:     calc.BaseAmount,
		FinalPayable:   calc.FinalPayable,
		DiscountAmount: calc.SavingsFromEarlyPayment,
		InterestAmount: calc.PenaltyFromLatePayment,
		DaysElapsed:    calc.DaysElapsed,
		RepaidAt:       now,
	})
	if err != nil {
		return nil, err
	}

	return &repaymentdomain.SubmitResult{
		Repayment:     *repayment,
		Calculation:   calc,
		CreditHistory: history,
	}, nil
}

func (s *Service) newRepayment(
	purchase *purchasedomain.CreditPurchase,
	calc repaymentdomain.Calculation,
	paid decimal.Decimal,
	req repaymentdomain.SubmitRequest,
	now time.Time,
) *repaymentdomain.Repayment {
	mode := strings.TrimSpace(req.PaymentMode)
	if mode == "" {
		mode = defaultPaymentMode
	}
	return &repaymentdomain.Repayment{
		ID:                s.genID.Generate(),
		Number:            repaymentNumber(now),
		VendorID:          purchase.VendorID,
		PurchaseID:        purchase.ID,
		PurchaseDate:      purchase.PurchasedAt,
		DueDate:           purchase.PurchasedAt.AddDate(0, 0, dueAfterDays),
		RepaidAt:          now,
		DaysElapsed:       calc.DaysElapsed,
		BaseAmount:        calc.BaseAmount,
		FinalAmount:       calc.FinalPayable,
		PaidAmount:        paid,
		TierType:          calc.TierType,
		TierID:            calc.TierID,
		TierName:          calc.TierApplied,
		Rate:              calc.Rate(),
		DiscountAmount:    calc.DiscountAmount,
		InterestAmount:    calc.InterestAmount,
		Breakdown:         datatypes.NewJSONType(calc.FinancialBreakdown),
		CalculationMethod: repaymentdomain.CalculationMethod,
		CalculationNotes:  calc.Summary.Message,
		PaymentMode:       mode,
		TransactionID:     strings.TrimSpace(req.TransactionID),
		Notes:             strings.TrimSpace(req.Notes),
		Status:            repaymentdomain.StatusCompleted,
		CreatedAt:         now,
	}
}

func (s *Service) ListRepayments(ctx context.Context, req repaymentdomain.ListRequest) (repaymentdomain.ListResponse, error) {
	vendorID := strings.TrimSpace(req.VendorID)
	if vendorID == "" {
		return repaymentdomain.ListResponse{}, repaymentdomain.ErrInvalidVendor
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	items, err := s.repo.List(ctx, s.db, vendorID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return repaymentdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(r *repaymentdomain.Repayment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        r.ID.String(),
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	repayments := make([]repaymentdomain.Repayment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		repayments = append(repayments, *item)
	}

	resp := repaymentdomain.ListResponse{Repayments: repayments}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetRepayment(ctx context.Context, vendorID, id string) (*repaymentdomain.Repayment, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, repaymentdomain.ErrInvalidVendor
	}
	repaymentID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, repaymentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, repaymentdomain.ErrNotFound
	}
	if item.VendorID != vendorID {
		return nil, repaymentdomain.ErrNotOwner
	}
	return item, nil
}

func (s *Service) Summary(ctx context.Context, vendorID string) (*repaymentdomain.CreditSummary, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, repaymentdomain.ErrInvalidVendor
	}

	history, err := s.history.Get(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.purchases.ListOutstanding(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountCompleted(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	summary := repaymentdomain.OutstandingSummary{
		Count:       len(outstanding),
		TotalAmount: decimal.Zero,
		Purchases:   make([]repaymentdomain.OutstandingPurchase, 0, len(outstanding)),
	}
	for _, p := range outstanding {
		summary.TotalAmount = summary.TotalAmount.Add(p.TotalAmount)
		summary.Purchases = append(summary.Purchases, repaymentdomain.OutstandingPurchase{
			ID:          p.ID.String(),
			Amount:      p.TotalAmount,
			PurchasedAt: p.PurchasedAt,
			Status:      string(p.Status),
		})
	}

	return &repaymentdomain.CreditSummary{
		VendorID:             vendorID,
		CreditHistory:        history,
		OutstandingPurchases: summary,
		TotalRepayments:      count,
	}, nil
}

func (s *Service) outstandingPurchase(ctx context.Context, db *gorm.DB, vendorID, purchaseID string) (*purchasedomain.CreditPurchase, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, repaymentdomain.ErrInvalidVendor
	}
	id, err := parseID(purchaseID)
	if err != nil {
		return nil, err
	}

	purchase, err := s.purchases.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := checkPurchase(purchase, vendorID); err != nil {
		return nil, err
	}
	return purchase, nil
}

func checkPurchase(purchase *purchasedomain.CreditPurchase, vendorID string) error {
	switch {
	case purchase == nil:
		return repaymentdomain.ErrPurchaseNotFound
	case purchase.VendorID != vendorID:
		return repaymentdomain.ErrNotOwner
	case purchase.Status == purchasedomain.StatusRepaid:
		return repaymentdomain.ErrAlreadyRepaid
	case !purchase.Outstanding():
		return repaymentdomain.ErrNotOutstanding
	}
	return nil
}

func (s *Service) lockVendor(ctx context.Context, vendorID string) (func(), error) {
	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	release, err := s.locker.Acquire(acquireCtx, vendorLockPrefix+vendorID, lockTTL)
	cancel()
	if err != nil {
		if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, lock.ErrAcquireTimeout)) {
			return nil, repaymentdomain.ErrVendorBusy
		}
		return nil, err
	}
	s.creditMetrics.ObserveLockWait(metrics.LockVendorHistory, time.Since(start))
	return release, nil
}

func (s *Service) publishCompleted(ctx context.Context, result *repaymentdomain.SubmitResult) {
	r := result.Repayment
	err := s.publisher.Publish(ctx, events.Event{
		ID:         r.Number,
		Type:       events.TypeRepaymentCompleted,
		Key:        r.VendorID,
		OccurredAt: r.RepaidAt,
		Payload: repaymentdomain.RepaymentCompletedEvent{
			RepaymentID: r.ID.String(),
			Number:      r.Number,
			VendorID:    r.VendorID,
			PurchaseID:  r.PurchaseID.String(),
			TierType:    r.TierType,
			FinalAmount: r.FinalAmount,
			DaysElapsed: r.DaysElapsed,
			CreditScore: result.CreditHistory.CreditScore,
		},
	})
	if err != nil {
		s.log.Warn("publish repayment event failed", zap.String("repayment_id", r.ID.String()), zap.Error(err))
	}
}

func (s *Service) logSubmitFailure(vendorID string, purchaseID snowflake.ID, err error) {
	fields := []zap.Field{
		zap.String("vendor_id", vendorID),
		zap.String("purchase_id", purchaseID.String()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, repaymentdomain.ErrAmountMismatch),
		errors.Is(err, repaymentdomain.ErrAlreadyRepaid),
		errors.Is(err, repaymentdomain.ErrNotOwner),
		errors.Is(err, repaymentdomain.ErrPurchaseNotFound),
		errors.Is(err, repaymentdomain.ErrNotOutstanding):
		s.log.Info("repayment rejected", fields...)
	default:
		s.log.Error("repayment failed", fields...)
	}
}

func (s *Service) calculator() repaymentdomain.Calculator {
	return repaymentdomain.NewCalculator(s.policy.Get().Repayment.CurrencySymbol)
}

func toPurchase(p *purchasedomain.CreditPurchase) repaymentdomain.Purchase {
	return repaymentdomain.Purchase{
		ID:          p.ID.String(),
		Amount:      p.TotalAmount,
		PurchasedAt: p.PurchasedAt,
	}
}

// repaymentNumber returns REP-YYYYMMDD-<ulid>.
func repaymentNumber(now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return "REP-" + now.UTC().Format("20060102") + "-" + id.String()
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, repaymentdomain.ErrInvalidID
	}
	return id, nil
}
