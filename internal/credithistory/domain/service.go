package domain

import (
	"context"

	"gorm.io/gorm"
)

type Service interface {
	Get(ctx context.Context, vendorID string) (*CreditHistory, error)
	// Apply records one finalized repayment inside tx. Callers serialize calls
	// per vendor and retry on ErrVersionConflict.
	Apply(ctx context.Context, tx *gorm.DB, vendorID string, outcome RepaymentOutcome) (*CreditHistory, error)
}
