package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keySubmitVendor = "repayment:submit:vendor:%s"

// Limiter throttles repayment submissions per vendor.
type Limiter interface {
	AllowSubmit(ctx context.Context, vendorID string) (Result, error)
}

type Params struct {
	fx.In

	Cfg   config.Config
	Redis *redis.Client `optional:"true"`
	Log   *zap.Logger
}

type SubmitLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewSubmitLimiter returns nil when redis is not configured or the limit is
// switched off. A nil limiter allows everything.
func NewSubmitLimiter(p Params) *SubmitLimiter {
	log := p.Log.Named("ratelimit")
	if p.Redis == nil {
		log.Info("redis not configured, submit rate limit disabled")
		return nil
	}
	if p.Cfg.SubmitRatePerMinute <= 0 || p.Cfg.SubmitBurst <= 0 {
		log.Info("submit rate limit disabled")
		return nil
	}
	return &SubmitLimiter{
		bucket: NewTokenBucket(p.Redis),
		rate:   p.Cfg.SubmitRatePerMinute / 60,
		burst:  p.Cfg.SubmitBurst,
	}
}

func (l *SubmitLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *SubmitLimiter) AllowSubmit(ctx context.Context, vendorID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return Result{}, ErrEmptyKey
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keySubmitVendor, vendorID), l.rate, l.burst)
}
