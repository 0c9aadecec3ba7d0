package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/observability"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTierService struct {
	tierdomain.Service

	createErr  error
	lastCreate tierdomain.CreateRequest
	listCalls  int
}

func (f *fakeTierService) Create(_ context.Context, req tierdomain.CreateRequest) (*tierdomain.Response, error) {
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &tierdomain.Response{ID: "1", Kind: req.Kind, Name: req.Name}, nil
}

func (f *fakeTierService) List(_ context.Context, _ tierdomain.Kind, _ *bool) ([]tierdomain.Response, error) {
	f.listCalls++
	return []tierdomain.Response{}, nil
}

type fakePurchaseService struct {
	purchasedomain.Service
}

type fakeRepaymentService struct {
	repaymentdomain.Service

	submitErr     error
	calculateErr  error
	lastCalculate repaymentdomain.CalculateRequest
	lastProject   repaymentdomain.ProjectRequest
	lastSubmit    repaymentdomain.SubmitRequest
}

func (f *fakeRepaymentService) Calculate(_ context.Context, req repaymentdomain.CalculateRequest) (*repaymentdomain.Calculation, error) {
	f.lastCalculate = req
	if f.calculateErr != nil {
		return nil, f.calculateErr
	}
	return &repaymentdomain.Calculation{TierType: repaymentdomain.TierTypeNone}, nil
}

func (f *fakeRepaymentService) Project(_ context.Context, req repaymentdomain.ProjectRequest) (*repaymentdomain.Projection, error) {
	f.lastProject = req
	return &repaymentdomain.Projection{}, nil
}

func (f *fakeRepaymentService) Submit(_ context.Context, req repaymentdomain.SubmitRequest) (*repaymentdomain.SubmitResult, error) {
	f.lastSubmit = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &repaymentdomain.SubmitResult{}, nil
}

type testServer struct {
	engine     *gin.Engine
	tiers      *fakeTierService
	repayments *fakeRepaymentService
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tiers := &fakeTierService{}
	repayments := &fakeRepaymentService{}
	engine := NewEngine(observability.Config{Environment: "production"})
	NewServer(ServerParams{
		Gin:          engine,
		Cfg:          config.Config{Environment: "test"},
		TierSvc:      tiers,
		PurchaseSvc:  &fakePurchaseService{},
		RepaymentSvc: repayments,
	})
	return testServer{engine: engine, tiers: tiers, repayments: repayments}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

var vendorHeader = map[string]string{"X-Vendor-ID": "vendor-001"}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTier_ConflictListsEveryError(t *testing.T) {
	s := newTestServer(t)
	s.tiers.createErr = &tierdomain.ValidationError{Result: tierdomain.ValidationResult{
		Errors:   []string{"Period overlaps with existing tier(s): Early Bird (0-30 days)"},
		Warnings: []string{"Discount rate of 25% is unusually high. Verify this is intentional."},
	}}

	rec := s.do(t, http.MethodPost, "/api/admin/repayment-config/tiers/discount", map[string]any{
		"name":         "Overlap",
		"period_start": 10,
		"period_end":   20,
		"rate":         "25",
	}, map[string]string{HeaderActor: "ops@example.com"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "tier_validation_failed", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "Period overlaps with existing tier(s): Early Bird (0-30 days)", payload.Errors[0].Message)
	assert.Len(t, payload.Warnings, 1)

	assert.Equal(t, tierdomain.KindDiscount, s.tiers.lastCreate.Kind)
	assert.Equal(t, "ops@example.com", s.tiers.lastCreate.Actor)
	assert.True(t, s.tiers.lastCreate.Rate.Equal(decimal.NewFromInt(25)))
}

func TestCreateTier_Created(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/admin/repayment-config/tiers/interest", map[string]any{
		"name":         "Overdue",
		"period_start": 121,
		"rate":         "10",
	}, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, defaultActor, s.tiers.lastCreate.Actor)
}

func TestListTiers_UnknownKind(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/admin/repayment-config/tiers/rebate", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_kind", payload.Errors[0].Code)
	assert.Zero(t, s.tiers.listCalls)
}

func TestVendorRoutes_RequireVendorHeader(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/vendors/credit/summary", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCalculateRepayment_ParsesDate(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/calculate", map[string]any{
		"purchase_id":    "42",
		"repayment_date": "2025-04-15",
	}, vendorHeader)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vendor-001", s.repayments.lastCalculate.VendorID)
	assert.Equal(t, "42", s.repayments.lastCalculate.PurchaseID)
	require.NotNil(t, s.repayments.lastCalculate.At)
	assert.Equal(t, "2025-04-15", s.repayments.lastCalculate.At.Format(dateOnlyLayout))

	rec = s.do(t, http.MethodPost, "/api/vendors/credit/repayment/calculate", map[string]any{
		"purchase_id":    "42",
		"repayment_date": "someday",
	}, vendorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateRepayment_ForeignPurchase(t *testing.T) {
	s := newTestServer(t)
	s.repayments.calculateErr = repaymentdomain.ErrNotOwner

	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/calculate", map[string]any{"purchase_id": "42"}, vendorHeader)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProjectRepayment_CollectsOffsets(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/vendors/credit/repayment/42/projection?days=today,15&days=30", nil, vendorHeader)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", s.repayments.lastProject.PurchaseID)
	assert.Equal(t, []string{"today", "15", "30"}, s.repayments.lastProject.Offsets)
}

func TestSubmitRepayment_AmountMismatch(t *testing.T) {
	s := newTestServer(t)
	s.repayments.submitErr = &repaymentdomain.AmountMismatchError{
		Expected:   decimal.NewFromInt(90000),
		Provided:   decimal.NewFromInt(89990),
		Difference: decimal.NewFromInt(10),
	}

	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/42/submit", map[string]any{
		"repayment_amount": "89990",
	}, vendorHeader)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "amount_mismatch", payload.Type)
	assert.Equal(t, "90000.00", payload.Details["expected"])
	assert.Equal(t, "10.00", payload.Details["difference"])

	require.NotNil(t, s.repayments.lastSubmit.Amount)
	assert.True(t, s.repayments.lastSubmit.Amount.Equal(decimal.NewFromInt(89990)))
	assert.Equal(t, "42", s.repayments.lastSubmit.PurchaseID)
}

func TestSubmitRepayment_Conflicts(t *testing.T) {
	s := newTestServer(t)

	for _, err := range []error{repaymentdomain.ErrAlreadyRepaid, repaymentdomain.ErrVendorBusy} {
		s.repayments.submitErr = err
		rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/42/submit", nil, vendorHeader)
		assert.Equal(t, http.StatusConflict, rec.Code, err.Error())
	}

	s.repayments.submitErr = repaymentdomain.ErrPurchaseNotFound
	rec := s.do(t, http.MethodPost, "/api/vendors/credit/repayment/42/submit", nil, vendorHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapError_AmountOutOfRange(t *testing.T) {
	status, payload := mapError(purchasedomain.ErrAmountOutOfRange)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "amount", payload.Errors[0].Field)
}
