package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/vendorcredit/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRetryAfter         = "Retry-After"
)

// SubmitRateLimit throttles repayment submissions per vendor. It must run
// after VendorRequired.
func (s *Server) SubmitRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := s.limiter.AllowSubmit(ctx, vendorID(c))
		if err != nil {
			obslogger.FromContext(ctx).Warn("submit rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		if res.Limit > 0 {
			c.Header(headerRateLimitLimit, strconv.Itoa(res.Limit))
			c.Header(headerRateLimitRemaining, strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			seconds := int(math.Ceil(res.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header(headerRetryAfter, strconv.Itoa(seconds))
			obslogger.FromContext(ctx).Info("repayment submit rate limited", zap.Duration("retry_after", res.RetryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}
