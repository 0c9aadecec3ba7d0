package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
)

func (s *Server) ApprovePurchase(c *gin.Context) {
	var req purchasedomain.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.VendorID = strings.TrimSpace(req.VendorID)
	req.Actor = actor(c)

	resp, err := s.purchaseSvc.Approve(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPurchase(c *gin.Context) {
	resp, err := s.purchaseSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPurchaseValidationError(err error) bool {
	switch {
	case errors.Is(err, purchasedomain.ErrInvalidVendor),
		errors.Is(err, purchasedomain.ErrInvalidID),
		errors.Is(err, purchasedomain.ErrInvalidAmount),
		errors.Is(err, purchasedomain.ErrAmountOutOfRange),
		errors.Is(err, purchasedomain.ErrInvalidPurchaseDate):
		return true
	default:
		return false
	}
}
