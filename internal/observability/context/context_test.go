package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithVendorID(ctx, "vendor-9")
	ctx = WithActor(ctx, "admin")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "vendor-9", VendorIDFromContext(ctx))
	assert.Equal(t, "admin", ActorFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
