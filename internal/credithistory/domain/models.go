package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultScore is the score of a vendor that has never repaid.
const DefaultScore = 100

// CreditHistory aggregates every finalized repayment of one vendor. Version
// increases by one on every successful save.
type CreditHistory struct {
	VendorID             string          `gorm:"primaryKey;type:varchar(64)" json:"vendor_id"`
	TotalCreditTaken     decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"total_credit_taken"`
	TotalRepaid          decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"total_repaid"`
	TotalDiscountsEarned decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"total_discounts_earned"`
	TotalInterestPaid    decimal.Decimal `gorm:"type:numeric(16,2);not null" json:"total_interest_paid"`
	AvgRepaymentDays     int             `gorm:"not null" json:"avg_repayment_days"`
	OnTimeRepaymentCount int             `gorm:"not null" json:"on_time_repayment_count"`
	LateRepaymentCount   int             `gorm:"not null" json:"late_repayment_count"`
	TotalRepaymentCount  int             `gorm:"not null" json:"total_repayment_count"`
	LastRepaymentDate    *time.Time      `json:"last_repayment_date,omitempty"`
	LastRepaymentDays    *int            `json:"last_repayment_days,omitempty"`
	CreditScore          int             `gorm:"not null" json:"credit_score"`
	Version              int64           `gorm:"not null" json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (CreditHistory) TableName() string { return "vendor_credit_histories" }

// NewHistory returns the zero aggregate of a vendor without repayments.
func NewHistory(vendorID string) CreditHistory {
	return CreditHistory{
		VendorID:    vendorID,
		CreditScore: DefaultScore,
	}
}

// Check reports aggregates no sequence of repayments could have produced.
func (h CreditHistory) Check() error {
	switch {
	case h.OnTimeRepaymentCount < 0 || h.LateRepaymentCount < 0 || h.TotalRepaymentCount < 0:
		return fmt.Errorf("%w: negative repayment counter", ErrMalformedHistory)
	case h.OnTimeRepaymentCount+h.LateRepaymentCount != h.TotalRepaymentCount:
		return fmt.Errorf("%w: on-time %d + late %d != total %d", ErrMalformedHistory,
			h.OnTimeRepaymentCount, h.LateRepaymentCount, h.TotalRepaymentCount)
	case h.AvgRepaymentDays < 0:
		return fmt.Errorf("%w: negative average repayment days", ErrMalformedHistory)
	case h.TotalCreditTaken.IsNegative() || h.TotalRepaid.IsNegative() ||
		h.TotalDiscountsEarned.IsNegative() || h.TotalInterestPaid.IsNegative():
		return fmt.Errorf("%w: negative total", ErrMalformedHistory)
	}
	return nil
}

var (
	ErrInvalidVendor    = errors.New("invalid_vendor")
	ErrMalformedHistory = errors.New("malformed_credit_history")
	ErrVersionConflict  = errors.New("credit_history_version_conflict")
)
