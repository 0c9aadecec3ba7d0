package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/vendorcredit/internal/clock"
	"github.com/smallbiznis/vendorcredit/internal/config"
	historydomain "github.com/smallbiznis/vendorcredit/internal/credithistory/domain"
	"github.com/smallbiznis/vendorcredit/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   historydomain.Repository
	Policy *config.CreditPolicyHolder
	Clock  clock.Clock

	Metrics       *metrics.Metrics       `optional:"true"`
	CreditMetrics *metrics.CreditMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	repo          historydomain.Repository
	policy        *config.CreditPolicyHolder
	clock         clock.Clock
	metrics       *metrics.Metrics
	creditMetrics *metrics.CreditMetrics
}

func New(p Params) historydomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("credithistory.service"),
		repo:          p.Repo,
		policy:        p.Policy,
		clock:         p.Clock,
		metrics:       p.Metrics,
		creditMetrics: p.CreditMetrics,
	}
}

func (s *Service) Get(ctx context.Context, vendorID string) (*historydomain.CreditHistory, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, historydomain.ErrInvalidVendor
	}

	history, err := s.repo.Get(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}
	if err := history.Check(); err != nil {
		s.log.Error("stored credit history is malformed", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, err
	}
	return history, nil
}

func (s *Service) Apply(ctx context.Context, tx *gorm.DB, vendorID string, outcome historydomain.RepaymentOutcome) (*historydomain.CreditHistory, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, historydomain.ErrInvalidVendor
	}

	current, err := s.repo.Get(ctx, tx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("load credit history: %w", err)
	}

	next, err := historydomain.ApplyRepayment(*current, outcome, s.policy.Get().Scoring)
	if err != nil {
		s.log.Error("credit history not updated", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	if current.Version == 0 {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	if err := s.repo.Save(ctx, tx, &next, current.Version); err != nil {
		if errors.Is(err, historydomain.ErrVersionConflict) {
			s.metrics.RecordVersionConflict(ctx)
			s.log.Warn("credit history version conflict",
				zap.String("vendor_id", vendorID),
				zap.Int64("expected_version", current.Version),
			)
			return nil, err
		}
		return nil, fmt.Errorf("save credit history: %w", err)
	}

	s.creditMetrics.ObserveCreditScore(next.CreditScore)
	s.log.Info("credit history updated",
		zap.String("vendor_id", vendorID),
		zap.Int("credit_score", next.CreditScore),
		zap.Int("repayments", next.TotalRepaymentCount),
		zap.Int("avg_repayment_days", next.AvgRepaymentDays),
	)
	return &next, nil
}
