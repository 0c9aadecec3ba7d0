package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, purchase *CreditPurchase) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CreditPurchase, error)
	ListOutstanding(ctx context.Context, db *gorm.DB, vendorID string) ([]CreditPurchase, error)
	// MarkRepaid flips an approved purchase to repaid. It returns
	// ErrNotOutstanding when the purchase was not in the approved state.
	MarkRepaid(ctx context.Context, db *gorm.DB, id snowflake.ID, repaidAt time.Time) error
}
