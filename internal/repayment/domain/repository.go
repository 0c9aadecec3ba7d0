package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vendorcredit/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, repayment *Repayment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Repayment, error)
	// List returns up to PageSize+1 repayments of the vendor, newest first.
	List(ctx context.Context, db *gorm.DB, vendorID string, page pagination.Pagination) ([]*Repayment, error)
	CountCompleted(ctx context.Context, db *gorm.DB, vendorID string) (int64, error)
}
