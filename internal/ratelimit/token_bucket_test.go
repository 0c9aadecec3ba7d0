package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 20*time.Second, bucketTTL(1, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 10))
	assert.Equal(t, 240*time.Second, bucketTTL(0.5, 60))
}

func TestBuildResult(t *testing.T) {
	allowed := buildResult(true, 4.7, 0.5, 10)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 10, allowed.Limit)
	assert.Equal(t, 4, allowed.Remaining)
	assert.Zero(t, allowed.RetryAfter)

	denied := buildResult(false, 0.5, 0.5, 10)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, time.Second, denied.RetryAfter)
}

func TestScriptValueParsing(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(1), toInt("1"))
	assert.Equal(t, 2.25, toFloat("2.25"))
	assert.Equal(t, 3.0, toFloat(int64(3)))
	assert.Zero(t, toFloat(nil))
}

func TestTokenBucketRequiresClient(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestSubmitLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewSubmitLimiter(Params{
		Cfg: config.Config{SubmitRatePerMinute: 10, SubmitBurst: 5},
		Log: zap.NewNop(),
	})
	require.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowSubmit(context.Background(), "vendor-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
