package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/vendorcredit/internal/observability/context"
	obslogger "github.com/smallbiznis/vendorcredit/internal/observability/logger"
)

const (
	HeaderActor        = "X-Actor"
	contextVendorIDKey = "vendor_id"
	contextActorKey    = "actor"
	defaultActor       = "admin"
)

// VendorRequired reads the vendor identity set by the upstream gateway.
func VendorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID := strings.TrimSpace(c.GetHeader(obslogger.HeaderVendorID))
		if vendorID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextVendorIDKey, vendorID)
		c.Request = c.Request.WithContext(obscontext.WithVendorID(c.Request.Context(), vendorID))
		c.Next()
	}
}

// ActorContext records who performs an admin change, for audit columns.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(HeaderActor))
		if actor == "" {
			actor = defaultActor
		}

		c.Set(contextActorKey, actor)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func vendorID(c *gin.Context) string {
	return c.GetString(contextVendorIDKey)
}

func actor(c *gin.Context) string {
	if v := c.GetString(contextActorKey); v != "" {
		return v
	}
	return defaultActor
}
