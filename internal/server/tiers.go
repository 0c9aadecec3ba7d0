package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
)

func tierKind(c *gin.Context) (tierdomain.Kind, error) {
	kind, err := tierdomain.ParseKind(c.Param("kind"))
	if err != nil {
		return "", err
	}
	c.Set("tier_kind", string(kind))
	return kind, nil
}

func (s *Server) ListTiers(c *gin.Context) {
	kind, err := tierKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "active must be a boolean"))
		return
	}

	resp, err := s.tierSvc.List(c.Request.Context(), kind, active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTier(c *gin.Context) {
	kind, err := tierKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.tierSvc.Get(c.Request.Context(), kind, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTier(c *gin.Context) {
	kind, err := tierKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req tierdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Kind = kind
	req.Actor = actor(c)

	resp, err := s.tierSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateTier(c *gin.Context) {
	kind, err := tierKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req tierdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Kind = kind
	req.ID = strings.TrimSpace(c.Param("id"))
	req.Actor = actor(c)

	resp, err := s.tierSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateTier(c *gin.Context) {
	kind, err := tierKind(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.tierSvc.Deactivate(c.Request.Context(), kind, strings.TrimSpace(c.Param("id")), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ValidateTier dry-runs a candidate tier. A failing candidate is still a
// successful request: the verdict is in the body.
func (s *Server) ValidateTier(c *gin.Context) {
	var req tierdomain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.tierSvc.Validate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GetTierSystemStatus(c *gin.Context) {
	status, err := s.tierSvc.SystemStatus(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func asTierValidationError(err error) *tierdomain.ValidationError {
	var vErr *tierdomain.ValidationError
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isTierValidationError(err error) bool {
	switch {
	case errors.Is(err, tierdomain.ErrInvalidKind),
		errors.Is(err, tierdomain.ErrInvalidID),
		errors.Is(err, tierdomain.ErrInvalidPeriod):
		return true
	default:
		return false
	}
}
