package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/vendorcredit/internal/cache"
	"github.com/smallbiznis/vendorcredit/internal/clock"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/credithistory"
	"github.com/smallbiznis/vendorcredit/internal/events"
	"github.com/smallbiznis/vendorcredit/internal/lock"
	"github.com/smallbiznis/vendorcredit/internal/migration"
	"github.com/smallbiznis/vendorcredit/internal/observability"
	"github.com/smallbiznis/vendorcredit/internal/purchase"
	"github.com/smallbiznis/vendorcredit/internal/ratelimit"
	"github.com/smallbiznis/vendorcredit/internal/repayment"
	"github.com/smallbiznis/vendorcredit/internal/server"
	"github.com/smallbiznis/vendorcredit/internal/tier"
	"github.com/smallbiznis/vendorcredit/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(RegisterRedis),
		db.Module,
		clock.Module,
		lock.Module,
		cache.Module,
		events.Module,
		ratelimit.Module,
		migration.Module,

		// Functional Domains
		tier.Module,
		purchase.Module,
		credithistory.Module,
		repayment.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

// RegisterRedis returns nil when REDIS_ADDR is unset; locks then stay
// in-process and submissions are not rate limited.
func RegisterRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
