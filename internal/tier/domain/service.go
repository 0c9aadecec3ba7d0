package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Deactivate(ctx context.Context, kind Kind, id string, actor string) (*Response, error)
	Get(ctx context.Context, kind Kind, id string) (*Response, error)
	List(ctx context.Context, kind Kind, active *bool) ([]Response, error)

	// Validate dry-runs a candidate against the persisted tiers.
	Validate(ctx context.Context, req ValidateRequest) (ValidationResult, error)
	Resolve(ctx context.Context, kind Kind, days int) (*Tier, error)
	Snapshot(ctx context.Context) (Snapshot, error)
	ValidateSeparation(ctx context.Context) (SeparationReport, error)
	SystemStatus(ctx context.Context) (*SystemStatus, error)
}

type CreateRequest struct {
	Kind        Kind            `json:"kind"`
	Name        string          `json:"name"`
	PeriodStart int             `json:"period_start"`
	PeriodEnd   *int            `json:"period_end"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    *bool           `json:"is_active"`
	IsOpenEnded bool            `json:"is_open_ended"`
	Description string          `json:"description"`
	Metadata    map[string]any  `json:"metadata"`
	Actor       string          `json:"-"`
}

type UpdateRequest struct {
	Kind        Kind             `json:"-"`
	ID          string           `json:"-"`
	Name        *string          `json:"name"`
	PeriodStart *int             `json:"period_start"`
	PeriodEnd   *int             `json:"period_end"`
	Rate        *decimal.Decimal `json:"rate"`
	IsActive    *bool            `json:"is_active"`
	IsOpenEnded *bool            `json:"is_open_ended"`
	Description *string          `json:"description"`
	Metadata    map[string]any   `json:"metadata"`
	Actor       string           `json:"-"`
}

// AffectsSchedule reports whether the update touches anything the validator checks.
func (r UpdateRequest) AffectsSchedule() bool {
	return r.PeriodStart != nil || r.PeriodEnd != nil || r.Rate != nil ||
		r.IsActive != nil || r.IsOpenEnded != nil
}

type ValidateRequest struct {
	CreateRequest
	ExcludeID string `json:"exclude_id"`
}

type Response struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	PeriodStart int             `json:"period_start"`
	PeriodEnd   *int            `json:"period_end"`
	Period      string          `json:"period"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    bool            `json:"is_active"`
	IsOpenEnded bool            `json:"is_open_ended"`
	Description string          `json:"description,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Warnings    []string        `json:"warnings,omitempty"`
}

var (
	ErrInvalidKind       = errors.New("invalid_kind")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrNotFound          = errors.New("not_found")
	ErrValidationFailed  = errors.New("tier_validation_failed")
	ErrConfigLockTimeout = errors.New("tier_config_busy")
)

// ValidationError carries every problem found for a rejected candidate.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Result.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
