package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const StatusCompleted = "completed"

// Repayment is the record of one finalized repayment.
type Repayment struct {
	ID                snowflake.ID                           `gorm:"primaryKey" json:"id"`
	Number            string                                 `gorm:"type:varchar(48);not null;uniqueIndex" json:"number"`
	VendorID          string                                 `gorm:"type:varchar(64);not null;index" json:"vendor_id"`
	PurchaseID        snowflake.ID                           `gorm:"not null;uniqueIndex" json:"purchase_id"`
	PurchaseDate      time.Time                              `gorm:"not null" json:"purchase_date"`
	DueDate           time.Time                              `gorm:"not null" json:"due_date"`
	RepaidAt          time.Time                              `gorm:"not null" json:"repaid_at"`
	DaysElapsed       int                                    `gorm:"not null" json:"days_elapsed"`
	BaseAmount        decimal.Decimal                        `gorm:"type:numeric(14,2);not null" json:"base_amount"`
	FinalAmount       decimal.Decimal                        `gorm:"type:numeric(14,2);not null" json:"final_amount"`
	PaidAmount        decimal.Decimal                        `gorm:"type:numeric(14,2);not null" json:"paid_amount"`
	TierType          TierType                               `gorm:"type:varchar(16);not null" json:"tier_type"`
	TierID            string                                 `gorm:"type:varchar(32)" json:"tier_id,omitempty"`
	TierName          string                                 `gorm:"type:varchar(128)" json:"tier_name"`
	Rate              decimal.Decimal                        `gorm:"type:numeric(5,2);not null" json:"rate"`
	DiscountAmount    decimal.Decimal                        `gorm:"type:numeric(14,2);not null" json:"discount_amount"`
	InterestAmount    decimal.Decimal                        `gorm:"type:numeric(14,2);not null" json:"interest_amount"`
	Breakdown         datatypes.JSONType[FinancialBreakdown] `gorm:"type:jsonb" json:"financial_breakdown"`
	CalculationMethod string                                 `gorm:"type:varchar(64);not null" json:"calculation_method"`
	CalculationNotes  string                                 `gorm:"type:text" json:"calculation_notes"`
	PaymentMode       string                                 `gorm:"type:varchar(32);not null" json:"payment_mode"`
	TransactionID     string                                 `gorm:"type:varchar(128)" json:"transaction_id,omitempty"`
	Notes             string                                 `gorm:"type:text" json:"notes,omitempty"`
	Status            string                                 `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt         time.Time                              `gorm:"not null" json:"created_at"`
}

func (Repayment) TableName() string { return "credit_repayments" }
