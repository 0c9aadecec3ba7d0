package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	historydomain "github.com/smallbiznis/vendorcredit/internal/credithistory/domain"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/smallbiznis/vendorcredit/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type     string            `json:"type"`
	Message  string            `json:"message"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	// Tier conflicts carry every message so the admin can fix them at once.
	if tErr := asTierValidationError(err); tErr != nil {
		errs := make([]ValidationError, 0, len(tErr.Result.Errors))
		for _, msg := range tErr.Result.Errors {
			errs = append(errs, ValidationError{Field: "tier", Code: "tier_conflict", Message: msg})
		}
		return http.StatusUnprocessableEntity, errorPayload{
			Type:     "tier_validation_failed",
			Message:  "tier validation failed",
			Errors:   errs,
			Warnings: tErr.Result.Warnings,
		}
	}

	if mErr := asAmountMismatch(err); mErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "amount_mismatch",
			Message: "repayment amount does not match the amount due",
			Details: amountMismatchDetails(mErr),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, repaymentdomain.ErrNotOwner):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many repayment attempts, retry later",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) == 1 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isTierValidationError(err),
		isPurchaseValidationError(err),
		isRepaymentValidationError(err),
		errors.Is(err, historydomain.ErrInvalidVendor):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, repaymentdomain.ErrAlreadyRepaid),
		errors.Is(err, repaymentdomain.ErrNotOutstanding),
		errors.Is(err, repaymentdomain.ErrVendorBusy),
		errors.Is(err, purchasedomain.ErrNotOutstanding),
		errors.Is(err, tierdomain.ErrConfigLockTimeout),
		errors.Is(err, historydomain.ErrVersionConflict):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, repaymentdomain.ErrAlreadyRepaid):
		return "purchase already repaid"
	case errors.Is(err, repaymentdomain.ErrNotOutstanding),
		errors.Is(err, purchasedomain.ErrNotOutstanding):
		return "purchase is not awaiting repayment"
	case errors.Is(err, repaymentdomain.ErrVendorBusy),
		errors.Is(err, tierdomain.ErrConfigLockTimeout):
		return "another change is in progress, retry shortly"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tierdomain.ErrNotFound),
		errors.Is(err, purchasedomain.ErrNotFound),
		errors.Is(err, repaymentdomain.ErrPurchaseNotFound),
		errors.Is(err, repaymentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	for _, known := range []error{
		ErrInvalidRequest,
		tierdomain.ErrInvalidKind,
		tierdomain.ErrInvalidID,
		tierdomain.ErrInvalidPeriod,
		purchasedomain.ErrAmountOutOfRange,
		repaymentdomain.ErrInvalidOffset,
		pagination.ErrInvalidPageToken,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "amount_out_of_range":
		return "amount"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "amount_out_of_range":
		return "amount is outside the allowed credit range"
	case "invalid_period":
		return "period end must be greater than period start"
	default:
		return "invalid value"
	}
}
