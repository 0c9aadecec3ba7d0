package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/observability"
	"github.com/smallbiznis/vendorcredit/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

type fakeLimiter struct {
	remaining int
	err       error
	vendors   []string
}

func (f *fakeLimiter) AllowSubmit(_ context.Context, vendorID string) (ratelimit.Result, error) {
	f.vendors = append(f.vendors, vendorID)
	if f.err != nil {
		return ratelimit.Result{}, f.err
	}
	if f.remaining <= 0 {
		return ratelimit.Result{Limit: 2, RetryAfter: 1500 * time.Millisecond}, nil
	}
	f.remaining--
	return ratelimit.Result{Allowed: true, Limit: 2, Remaining: f.remaining}, nil
}

func newLimitedServer(t *testing.T, limiter ratelimit.Limiter) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repayments := &fakeRepaymentService{}
	engine := NewEngine(observability.Config{Environment: "production"})
	NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{Environment: "test"},
		TierSvc:      &fakeTierService{},
		PurchaseSvc:  &fakePurchaseService{},
		RepaymentSvc: repayments,
		Limiter:      limiter,
	})
	return testServer{engine: engine, repayments: repayments}
}

func TestSubmitRateLimit_DeniesAfterBurst(t *testing.T) {
	limiter := &fakeLimiter{remaining: 2}
	s := newLimitedServer(t, limiter)
	path := "/api/vendors/credit/repayment/42/submit"

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, path, nil, vendorHeader)
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get(headerRateLimitLimit))
	}

	s.repayments.lastSubmit.PurchaseID = ""
	rec := s.do(t, http.MethodPost, path, nil, vendorHeader)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get(headerRetryAfter))
	assert.Equal(t, "0", rec.Header().Get(headerRateLimitRemaining))
	assert.Equal(t, "rate_limited", decodeError(t, rec).Type)
	assert.Empty(t, s.repayments.lastSubmit.PurchaseID)
	assert.Equal(t, []string{"vendor-001", "vendor-001", "vendor-001"}, limiter.vendors)
}

func TestSubmitRateLimit_OnlySubmitRoute(t *testing.T) {
	limiter := &fakeLimiter{}
	s := newLimitedServer(t, limiter)

	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/calculate", map[string]any{
		"purchase_id": "42",
	}, vendorHeader)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, limiter.vendors)
}

func TestSubmitRateLimit_BackendFailure(t *testing.T) {
	s := newLimitedServer(t, &fakeLimiter{err: errors.New("redis down")})

	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/42/submit", nil, vendorHeader)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitRateLimit_NilLimiterAllows(t *testing.T) {
	var limiter *ratelimit.SubmitLimiter
	s := newLimitedServer(t, limiter)

	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/42/submit", nil, vendorHeader)
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get(headerRateLimitLimit))
	assert.Equal(t, "42", s.repayments.lastSubmit.PurchaseID)
}
