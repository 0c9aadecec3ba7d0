package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	"github.com/smallbiznis/vendorcredit/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() repaymentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, repayment *repaymentdomain.Repayment) error {
	return db.WithContext(ctx).Create(repayment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*repaymentdomain.Repayment, error) {
	var repayment repaymentdomain.Repayment
	err := db.WithContext(ctx).
		Model(&repaymentdomain.Repayment{}).
		Where("id = ?", id).
		Limit(1).
		Find(&repayment).Error
	if err != nil {
		return nil, err
	}
	if repayment.ID == 0 {
		return nil, nil
	}
	return &repayment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, vendorID string, page pagination.Pagination) ([]*repaymentdomain.Repayment, error) {
	stmt := db.WithContext(ctx).
		Model(&repaymentdomain.Repayment{}).
		Where("vendor_id = ?", vendorID)
	stmt, err := pagination.ApplyCursor(stmt, page)
	if err != nil {
		return nil, err
	}

	var items []*repaymentdomain.Repayment
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountCompleted(ctx context.Context, db *gorm.DB, vendorID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&repaymentdomain.Repayment{}).
		Where("vendor_id = ? AND status = ?", vendorID, repaymentdomain.StatusCompleted).
		Count(&count).Error
	return count, err
}
