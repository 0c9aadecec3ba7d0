package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() purchasedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, purchase *purchasedomain.CreditPurchase) error {
	return db.WithContext(ctx).Create(purchase).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*purchasedomain.CreditPurchase, error) {
	var purchase purchasedomain.CreditPurchase
	err := db.WithContext(ctx).
		Model(&purchasedomain.CreditPurchase{}).
		Where("id = ?", id).
		Limit(1).
		Find(&purchase).Error
	if err != nil {
		return nil, err
	}
	if purchase.ID == 0 {
		return nil, nil
	}
	return &purchase, nil
}

func (r *repo) ListOutstanding(ctx context.Context, db *gorm.DB, vendorID string) ([]purchasedomain.CreditPurchase, error) {
	var items []purchasedomain.CreditPurchase
	err := db.WithContext(ctx).
		Model(&purchasedomain.CreditPurchase{}).
		Where("vendor_id = ? AND status = ?", vendorID, purchasedomain.StatusApproved).
		Order("purchased_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRepaid(ctx context.Context, db *gorm.DB, id snowflake.ID, repaidAt time.Time) error {
	result := db.WithContext(ctx).
		Model(&purchasedomain.CreditPurchase{}).
		Where("id = ? AND status = ?", id, purchasedomain.StatusApproved).
		Updates(map[string]any{
			"status":     purchasedomain.StatusRepaid,
			"repaid_at":  repaidAt,
			"updated_at": repaidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return purchasedomain.ErrNotOutstanding
	}
	return nil
}
