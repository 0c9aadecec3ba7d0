package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	"github.com/smallbiznis/vendorcredit/pkg/db/pagination"
)

type calculateRepaymentRequest struct {
	PurchaseID    string `json:"purchase_id"`
	RepaymentDate string `json:"repayment_date"`
}

func (s *Server) CalculateRepayment(c *gin.Context) {
	var body calculateRepaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	at, err := parseOptionalTime(body.RepaymentDate, false)
	if err != nil {
		AbortWithError(c, repaymentdomain.ErrInvalidRepaymentDate)
		return
	}

	resp, err := s.repaymentSvc.Calculate(c.Request.Context(), repaymentdomain.CalculateRequest{
		VendorID:   vendorID(c),
		PurchaseID: strings.TrimSpace(body.PurchaseID),
		At:         at,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ProjectRepayment accepts ?days=today,15,30 or repeated days parameters.
func (s *Server) ProjectRepayment(c *gin.Context) {
	var offsets []string
	for _, v := range c.QueryArray("days") {
		offsets = append(offsets, strings.Split(v, ",")...)
	}

	resp, err := s.repaymentSvc.Project(c.Request.Context(), repaymentdomain.ProjectRequest{
		VendorID:   vendorID(c),
		PurchaseID: strings.TrimSpace(c.Param("purchaseId")),
		Offsets:    offsets,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitRepayment(c *gin.Context) {
	var req repaymentdomain.SubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.VendorID = vendorID(c)
	req.PurchaseID = strings.TrimSpace(c.Param("purchaseId"))

	resp, err := s.repaymentSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListRepayments(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.repaymentSvc.ListRepayments(c.Request.Context(), repaymentdomain.ListRequest{
		VendorID:  vendorID(c),
		PageToken: page.PageToken,
		PageSize:  page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Repayments,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) GetRepayment(c *gin.Context) {
	resp, err := s.repaymentSvc.GetRepayment(c.Request.Context(), vendorID(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCreditSummary(c *gin.Context) {
	resp, err := s.repaymentSvc.Summary(c.Request.Context(), vendorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func asAmountMismatch(err error) *repaymentdomain.AmountMismatchError {
	var mErr *repaymentdomain.AmountMismatchError
	if errors.As(err, &mErr) && mErr != nil {
		return mErr
	}
	return nil
}

func amountMismatchDetails(e *repaymentdomain.AmountMismatchError) map[string]string {
	return map[string]string{
		"expected":   e.Expected.StringFixed(2),
		"provided":   e.Provided.StringFixed(2),
		"difference": e.Difference.StringFixed(2),
	}
}

func isRepaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, repaymentdomain.ErrInvalidVendor),
		errors.Is(err, repaymentdomain.ErrInvalidID),
		errors.Is(err, repaymentdomain.ErrInvalidAmount),
		errors.Is(err, repaymentdomain.ErrMissingPurchaseDate),
		errors.Is(err, repaymentdomain.ErrInvalidRepaymentDate),
		errors.Is(err, repaymentdomain.ErrInvalidOffset),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}
