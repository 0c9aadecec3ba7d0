package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tierdomain.Tier{}))
	return db
}

func seedTier(t *testing.T, db *gorm.DB, repo tierdomain.Repository, id int64, kind tierdomain.Kind, start, end int, rate string, active bool) tierdomain.Tier {
	t.Helper()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tier := tierdomain.Tier{
		ID:          snowflake.ID(id),
		Kind:        kind,
		Code:        fmt.Sprintf("tier-%d", id),
		Name:        fmt.Sprintf("Tier %d", id),
		PeriodStart: start,
		PeriodEnd:   end,
		Rate:        decimal.RequireFromString(rate),
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Insert(context.Background(), db, &tier))
	return tier
}

func TestRepository_ListAndSort(t *testing.T) {
	db := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	seedTier(t, db, repo, 1, tierdomain.KindDiscount, 31, 40, "6", true)
	seedTier(t, db, repo, 2, tierdomain.KindDiscount, 0, 30, "10", true)
	seedTier(t, db, repo, 3, tierdomain.KindDiscount, 61, 90, "2", false)
	seedTier(t, db, repo, 4, tierdomain.KindInterest, 105, 120, "5", true)

	all, err := repo.List(ctx, db, tierdomain.KindDiscount, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 0, all[0].PeriodStart)

	active, err := repo.ListActive(ctx, db, tierdomain.KindDiscount)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	inactive := false
	disabled, err := repo.List(ctx, db, tierdomain.KindDiscount, &inactive)
	require.NoError(t, err)
	require.Len(t, disabled, 1)
	assert.Equal(t, snowflake.ID(3), disabled[0].ID)

	last, err := repo.ListActiveSorted(ctx, db, tierdomain.KindDiscount, tierdomain.SortByPeriodEnd, true, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, 40, last[0].PeriodEnd)
	assert.True(t, decimal.NewFromInt(6).Equal(last[0].Rate))

	_, err = repo.ListActiveSorted(ctx, db, tierdomain.KindDiscount, tierdomain.SortField("name; DROP TABLE"), false, 1)
	assert.Error(t, err)

	count, err := repo.Count(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestRepository_FindAndUpdate(t *testing.T) {
	db := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	tier := seedTier(t, db, repo, 10, tierdomain.KindInterest, 105, 120, "5", true)

	found, err := repo.FindByID(ctx, db, tierdomain.KindInterest, tier.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tier.Name, found.Name)

	missing, err := repo.FindByID(ctx, db, tierdomain.KindDiscount, tier.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	found.IsActive = false
	found.Rate = decimal.RequireFromString("7.5")
	require.NoError(t, repo.Update(ctx, db, found))

	reloaded, err := repo.FindByID(ctx, db, tierdomain.KindInterest, tier.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, "7.5", reloaded.Rate.String())

	ghost := tierdomain.Tier{ID: 999, Kind: tierdomain.KindInterest}
	assert.ErrorIs(t, repo.Update(ctx, db, &ghost), tierdomain.ErrNotFound)
}
