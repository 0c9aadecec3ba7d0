package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type ApproveRequest struct {
	VendorID    string          `json:"vendor_id"`
	Amount      decimal.Decimal `json:"amount"`
	PurchasedAt *time.Time      `json:"purchased_at"`
	Note        string          `json:"note"`
	Metadata    map[string]any  `json:"metadata"`
	Actor       string          `json:"-"`
}

type Service interface {
	// Approve records an approved credit purchase after the policy amount checks.
	Approve(ctx context.Context, req ApproveRequest) (*CreditPurchase, error)
	Get(ctx context.Context, id string) (*CreditPurchase, error)
	ListOutstanding(ctx context.Context, vendorID string) ([]CreditPurchase, error)
}

// ApprovedEvent is published once a purchase is approved.
type ApprovedEvent struct {
	PurchaseID  string          `json:"purchase_id"`
	VendorID    string          `json:"vendor_id"`
	Amount      decimal.Decimal `json:"amount"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

var (
	ErrInvalidVendor       = errors.New("invalid_vendor")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrAmountOutOfRange    = errors.New("amount_out_of_range")
	ErrInvalidPurchaseDate = errors.New("invalid_purchase_date")
	ErrNotFound            = errors.New("not_found")
	ErrNotOutstanding      = errors.New("purchase_not_outstanding")
)
