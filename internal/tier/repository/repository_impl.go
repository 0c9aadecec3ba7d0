package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tierdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tier *tierdomain.Tier) error {
	return db.WithContext(ctx).Create(tier).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tier *tierdomain.Tier) error {
	result := db.WithContext(ctx).
		Model(&tierdomain.Tier{}).
		Where("id = ? AND kind = ?", tier.ID, tier.Kind).
		Updates(map[string]any{
			"code":          tier.Code,
			"name":          tier.Name,
			"period_start":  tier.PeriodStart,
			"period_end":    tier.PeriodEnd,
			"rate":          tier.Rate,
			"is_active":     tier.IsActive,
			"is_open_ended": tier.IsOpenEnded,
			"description":   tier.Description,
			"metadata":      tier.Metadata,
			"updated_by":    tier.UpdatedBy,
			"updated_at":    tier.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tierdomain.ErrNotFound
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, kind tierdomain.Kind, id snowflake.ID) (*tierdomain.Tier, error) {
	var tier tierdomain.Tier
	err := db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, kind).
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, kind tierdomain.Kind, active *bool) ([]tierdomain.Tier, error) {
	query := db.WithContext(ctx).Where("kind = ?", kind)
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}

	var items []tierdomain.Tier
	if err := query.Order("period_start ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, kind tierdomain.Kind) ([]tierdomain.Tier, error) {
	active := true
	return r.List(ctx, db, kind, &active)
}

func (r *repo) ListActiveSorted(ctx context.Context, db *gorm.DB, kind tierdomain.Kind, field tierdomain.SortField, desc bool, limit int) ([]tierdomain.Tier, error) {
	switch field {
	case tierdomain.SortByPeriodStart, tierdomain.SortByPeriodEnd, tierdomain.SortByRate:
	default:
		return nil, fmt.Errorf("unsupported sort field %q", field)
	}

	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	query := db.WithContext(ctx).
		Where("kind = ? AND is_active = ?", kind, true).
		Order(fmt.Sprintf("%s %s", field, direction)).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []tierdomain.Tier
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&tierdomain.Tier{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
