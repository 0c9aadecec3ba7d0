package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.DBRunMigrations)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, int64(1), cfg.SnowflakeNode)
	assert.Equal(t, 30.0, cfg.SubmitRatePerMinute)
	assert.Equal(t, 10, cfg.SubmitBurst)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DATABASE_RUN_MIGRATIONS", "off")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")
	t.Setenv("REDIS_ADDR", " localhost:6379 ")
	t.Setenv("SNOWFLAKE_NODE", "7")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("RATE_LIMIT_SUBMIT_PER_MINUTE", "0.5")
	t.Setenv("RATE_LIMIT_SUBMIT_BURST", "2")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.False(t, cfg.DBRunMigrations)
	assert.Equal(t, 50, cfg.DBMaxOpenConn)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, int64(7), cfg.SnowflakeNode)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 0.5, cfg.SubmitRatePerMinute)
	assert.Equal(t, 2, cfg.SubmitBurst)
}
