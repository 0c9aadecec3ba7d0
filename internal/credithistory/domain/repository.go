package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Get returns the stored history, or NewHistory when the vendor has none.
	Get(ctx context.Context, db *gorm.DB, vendorID string) (*CreditHistory, error)
	// Save writes h if the stored version still equals expectedVersion.
	// expectedVersion 0 means the row must not exist yet.
	Save(ctx context.Context, db *gorm.DB, h *CreditHistory, expectedVersion int64) error
}
