package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		if cfg.DBRunMigrations {
			if err := applySchema(conn, cfg.DBType); err != nil {
				return err
			}
			log.Info("schema migrated", zap.String("dialect", cfg.DBType))
		}

		if !cfg.DBSeedDefaults {
			return nil
		}
		seeded, err := seed.EnsureDefaultTiers(context.Background(), conn, node)
		if err != nil {
			return err
		}
		if seeded > 0 {
			log.Info("default repayment tiers seeded", zap.Int("count", seeded))
		}
		return nil
	}),
)

func applySchema(conn *gorm.DB, dialect string) error {
	if dialect != "postgres" {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
