package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/vendorcredit/internal/clock"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/events"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      purchasedomain.Repository
	Policy    *config.CreditPolicyHolder
	Publisher events.Publisher
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      purchasedomain.Repository
	policy    *config.CreditPolicyHolder
	publisher events.Publisher
	clock     clock.Clock
}

func New(p Params) purchasedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("purchase.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		policy:    p.Policy,
		publisher: p.Publisher,
		clock:     p.Clock,
	}
}

func (s *Service) Approve(ctx context.Context, req purchasedomain.ApproveRequest) (*purchasedomain.CreditPurchase, error) {
	vendorID := strings.TrimSpace(req.VendorID)
	if vendorID == "" {
		return nil, purchasedomain.ErrInvalidVendor
	}
	if !req.Amount.IsPositive() {
		return nil, purchasedomain.ErrInvalidAmount
	}

	limits := s.policy.Get().Purchase
	minAmount := decimal.NewFromInt(limits.MinAmount)
	maxAmount := decimal.NewFromInt(limits.MaxAmount)
	if req.Amount.LessThan(minAmount) || req.Amount.GreaterThan(maxAmount) {
		return nil, fmt.Errorf("%w: amount must be between %s and %s", purchasedomain.ErrAmountOutOfRange, minAmount, maxAmount)
	}

	now := s.clock.Now()
	purchasedAt := now
	if req.PurchasedAt != nil {
		if req.PurchasedAt.IsZero() || req.PurchasedAt.After(now) {
			return nil, purchasedomain.ErrInvalidPurchaseDate
		}
		purchasedAt = req.PurchasedAt.UTC()
	}

	purchase := &purchasedomain.CreditPurchase{
		ID:          s.genID.Generate(),
		VendorID:    vendorID,
		TotalAmount: req.Amount.Round(2),
		Status:      purchasedomain.StatusApproved,
		PurchasedAt: purchasedAt,
		ApprovedBy:  req.Actor,
		Note:        strings.TrimSpace(req.Note),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		purchase.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, purchase); err != nil {
		s.log.Error("insert purchase failed", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	s.log.Info("credit purchase approved",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("vendor_id", vendorID),
		zap.String("amount", purchase.TotalAmount.StringFixed(2)),
	)

	err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypePurchaseApproved,
		Key:        vendorID,
		OccurredAt: now,
		Payload: purchasedomain.ApprovedEvent{
			PurchaseID:  purchase.ID.String(),
			VendorID:    vendorID,
			Amount:      purchase.TotalAmount,
			PurchasedAt: purchase.PurchasedAt,
		},
	})
	if err != nil {
		s.log.Warn("publish purchase event failed", zap.String("purchase_id", purchase.ID.String()), zap.Error(err))
	}

	return purchase, nil
}

func (s *Service) Get(ctx context.Context, id string) (*purchasedomain.CreditPurchase, error) {
	purchaseID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, purchaseID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, purchasedomain.ErrNotFound
	}
	return item, nil
}

func (s *Service) ListOutstanding(ctx context.Context, vendorID string) ([]purchasedomain.CreditPurchase, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, purchasedomain.ErrInvalidVendor
	}
	return s.repo.ListOutstanding(ctx, s.db, vendorID)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, purchasedomain.ErrInvalidID
	}
	return id, nil
}
