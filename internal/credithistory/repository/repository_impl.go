package repository

import (
	"context"

	historydomain "github.com/smallbiznis/vendorcredit/internal/credithistory/domain"
	"github.com/smallbiznis/vendorcredit/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() historydomain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, conn *gorm.DB, vendorID string) (*historydomain.CreditHistory, error) {
	var history historydomain.CreditHistory
	err := conn.WithContext(ctx).
		Model(&historydomain.CreditHistory{}).
		Where("vendor_id = ?", vendorID).
		Limit(1).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	if history.VendorID == "" {
		fresh := historydomain.NewHistory(vendorID)
		return &fresh, nil
	}
	return &history, nil
}

func (r *repo) Save(ctx context.Context, conn *gorm.DB, h *historydomain.CreditHistory, expectedVersion int64) error {
	if expectedVersion == 0 {
		h.Version = 1
		if err := conn.WithContext(ctx).Create(h).Error; err != nil {
			h.Version = 0
			if db.IsDuplicateKeyErr(err) {
				return historydomain.ErrVersionConflict
			}
			return err
		}
		return nil
	}

	result := conn.WithContext(ctx).
		Model(&historydomain.CreditHistory{}).
		Where("vendor_id = ? AND version = ?", h.VendorID, expectedVersion).
		Updates(map[string]any{
			"total_credit_taken":      h.TotalCreditTaken,
			"total_repaid":            h.TotalRepaid,
			"total_discounts_earned":  h.TotalDiscountsEarned,
			"total_interest_paid":     h.TotalInterestPaid,
			"avg_repayment_days":      h.AvgRepaymentDays,
			"on_time_repayment_count": h.OnTimeRepaymentCount,
			"late_repayment_count":    h.LateRepaymentCount,
			"total_repayment_count":   h.TotalRepaymentCount,
			"last_repayment_date":     h.LastRepaymentDate,
			"last_repayment_days":     h.LastRepaymentDays,
			"credit_score":            h.CreditScore,
			"version":                 expectedVersion + 1,
			"updated_at":              h.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return historydomain.ErrVersionConflict
	}
	h.Version = expectedVersion + 1
	return nil
}
