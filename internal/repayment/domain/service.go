package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	historydomain "github.com/smallbiznis/vendorcredit/internal/credithistory/domain"
	"github.com/smallbiznis/vendorcredit/pkg/db/pagination"
)

type CalculateRequest struct {
	VendorID   string     `json:"-"`
	PurchaseID string     `json:"purchase_id"`
	At         *time.Time `json:"repayment_date"`
}

type ProjectRequest struct {
	VendorID   string
	PurchaseID string
	// Offsets holds "today" or day counts; empty means the default schedule.
	Offsets []string
}

type SubmitRequest struct {
	VendorID      string           `json:"-"`
	PurchaseID    string           `json:"-"`
	Amount        *decimal.Decimal `json:"repayment_amount"`
	PaymentMode   string           `json:"payment_mode"`
	TransactionID string           `json:"transaction_id"`
	Notes         string           `json:"notes"`
}

type SubmitResult struct {
	Repayment     Repayment                    `json:"repayment"`
	Calculation   Calculation                  `json:"calculation"`
	CreditHistory *historydomain.CreditHistory `json:"credit_history"`
}

type ListRequest struct {
	VendorID  string
	PageToken string
	PageSize  int
}

type ListResponse struct {
	pagination.PageInfo
	Repayments []Repayment `json:"repayments"`
}

type OutstandingPurchase struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PurchasedAt time.Time       `json:"purchased_at"`
	Status      string          `json:"status"`
}

type OutstandingSummary struct {
	Count       int                   `json:"count"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Purchases   []OutstandingPurchase `json:"purchases"`
}

type CreditSummary struct {
	VendorID             string                       `json:"vendor_id"`
	CreditHistory        *historydomain.CreditHistory `json:"credit_history"`
	OutstandingPurchases OutstandingSummary           `json:"outstanding_purchases"`
	TotalRepayments      int64                        `json:"total_repayments"`
}

// RepaymentCompletedEvent is published after a repayment commits.
type RepaymentCompletedEvent struct {
	RepaymentID string          `json:"repayment_id"`
	Number      string          `json:"number"`
	VendorID    string          `json:"vendor_id"`
	PurchaseID  string          `json:"purchase_id"`
	TierType    TierType        `json:"tier_type"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	DaysElapsed int             `json:"days_elapsed"`
	CreditScore int             `json:"credit_score"`
}

type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (*Calculation, error)
	Project(ctx context.Context, req ProjectRequest) (*Projection, error)
	// Submit finalizes the repayment of a purchase at the current time.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	ListRepayments(ctx context.Context, req ListRequest) (ListResponse, error)
	GetRepayment(ctx context.Context, vendorID, id string) (*Repayment, error)
	Summary(ctx context.Context, vendorID string) (*CreditSummary, error)
}

var (
	ErrInvalidVendor        = errors.New("invalid_vendor")
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrMissingPurchaseDate  = errors.New("missing_purchase_date")
	ErrInvalidRepaymentDate = errors.New("invalid_repayment_date")
	ErrInvalidOffset        = errors.New("invalid_offset")
	ErrPurchaseNotFound     = errors.New("purchase_not_found")
	ErrNotOwner             = errors.New("purchase_not_owned")
	ErrAlreadyRepaid        = errors.New("purchase_already_repaid")
	ErrNotOutstanding       = errors.New("purchase_not_outstanding")
	ErrAmountMismatch       = errors.New("repayment_amount_mismatch")
	ErrNotFound             = errors.New("not_found")
	ErrVendorBusy           = errors.New("vendor_repayment_in_progress")
)

// AmountMismatchError reports a submitted amount too far from the amount due.
type AmountMismatchError struct {
	Expected   decimal.Decimal
	Provided   decimal.Decimal
	Difference decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, provided %s", ErrAmountMismatch, e.Expected.StringFixed(2), e.Provided.StringFixed(2))
}

func (e *AmountMismatchError) Unwrap() error { return ErrAmountMismatch }
