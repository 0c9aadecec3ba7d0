package logger

import (
	"context"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/vendorcredit/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithVendorID(ctx, "vendor-9")
	WithContext(ctx, base).Info("repayment finalized")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "vendor-9", fields["vendor_id"])
	assert.NotContains(t, fields, "actor")
	assert.Equal(t, "", fields["trace_id"])
}

func TestProductionConfig(t *testing.T) {
	cfg, err := productionConfig(Config{Format: "Console", Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())

	_, err = productionConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestSamplingOrDefault(t *testing.T) {
	window, initial, thereafter := samplingOrDefault(Config{})
	assert.Equal(t, time.Second, window)
	assert.Equal(t, 100, initial)
	assert.Equal(t, 100, thereafter)

	window, initial, _ = samplingOrDefault(Config{SamplingWindow: time.Minute, SamplingInitial: 5})
	assert.Equal(t, time.Minute, window)
	assert.Equal(t, 5, initial)
}
