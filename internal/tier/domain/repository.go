package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SortField string

const (
	SortByPeriodStart SortField = "period_start"
	SortByPeriodEnd   SortField = "period_end"
	SortByRate        SortField = "rate"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tier *Tier) error
	Update(ctx context.Context, db *gorm.DB, tier *Tier) error
	FindByID(ctx context.Context, db *gorm.DB, kind Kind, id snowflake.ID) (*Tier, error)
	List(ctx context.Context, db *gorm.DB, kind Kind, active *bool) ([]Tier, error)
	ListActive(ctx context.Context, db *gorm.DB, kind Kind) ([]Tier, error)
	// ListActiveSorted orders active tiers of kind by field; limit <= 0 means no limit.
	ListActiveSorted(ctx context.Context, db *gorm.DB, kind Kind, field SortField, desc bool, limit int) ([]Tier, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
