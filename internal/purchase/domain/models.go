package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRepaid   Status = "repaid"
)

// CreditPurchase is an approved credit extension to a vendor. PurchasedAt is
// the disbursal date every repayment calculation counts days from.
type CreditPurchase struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	VendorID    string            `gorm:"type:varchar(64);not null;index" json:"vendor_id"`
	TotalAmount decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Status      Status            `gorm:"type:varchar(16);not null;index" json:"status"`
	PurchasedAt time.Time         `gorm:"not null" json:"purchased_at"`
	RepaidAt    *time.Time        `json:"repaid_at,omitempty"`
	ApprovedBy  string            `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	Note        string            `gorm:"type:text" json:"note,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null" json:"updated_at"`
}

func (CreditPurchase) TableName() string { return "credit_purchases" }

// Outstanding reports whether the purchase still awaits repayment.
func (p CreditPurchase) Outstanding() bool {
	return p.Status == StatusApproved
}
