//go:build integration

package migration

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	historydomain "github.com/smallbiznis/vendorcredit/internal/credithistory/domain"
	historyrepository "github.com/smallbiznis/vendorcredit/internal/credithistory/repository"
	purchasedomain "github.com/smallbiznis/vendorcredit/internal/purchase/domain"
	repaymentdomain "github.com/smallbiznis/vendorcredit/internal/repayment/domain"
	"github.com/smallbiznis/vendorcredit/internal/seed"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("vendorcredit_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"test": "vendorcredit-migration"}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return conn
}

func TestRunMigrations_Postgres(t *testing.T) {
	conn := setupPostgres(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	require.NoError(t, RunMigrations(sqlDB))
	require.NoError(t, RunMigrations(sqlDB), "second run must be a no-op")

	for _, table := range []string{"repayment_tiers", "credit_purchases", "vendor_credit_histories", "credit_repayments"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	ctx := context.Background()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	seeded, err := seed.EnsureDefaultTiers(ctx, conn, node)
	require.NoError(t, err)
	assert.Equal(t, 6, seeded)

	var open tierdomain.Tier
	require.NoError(t, conn.Where("is_open_ended = ?", true).First(&open).Error)
	assert.Equal(t, tierdomain.OpenEndedPeriodEnd, open.PeriodEnd)

	now := time.Now().UTC()
	purchase := purchasedomain.CreditPurchase{
		ID:          node.Generate(),
		VendorID:    "vendor-001",
		TotalAmount: decimal.NewFromInt(100000),
		Status:      purchasedomain.StatusApproved,
		PurchasedAt: now.AddDate(0, 0, -15),
		Metadata:    datatypes.JSONMap{"channel": "test"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, conn.Create(&purchase).Error)

	breakdown := repaymentdomain.FinancialBreakdown{
		BaseAmount:        decimal.NewFromInt(100000),
		DiscountDeduction: decimal.NewFromInt(10000),
		InterestAddition:  decimal.Zero,
		FinalPayable:      decimal.NewFromInt(90000),
	}
	repayment := repaymentdomain.Repayment{
		ID:                node.Generate(),
		Number:            "REP-TEST-1",
		VendorID:          purchase.VendorID,
		PurchaseID:        purchase.ID,
		PurchaseDate:      purchase.PurchasedAt,
		DueDate:           purchase.PurchasedAt.AddDate(0, 0, 30),
		RepaidAt:          now,
		DaysElapsed:       15,
		BaseAmount:        breakdown.BaseAmount,
		FinalAmount:       breakdown.FinalPayable,
		PaidAmount:        breakdown.FinalPayable,
		TierType:          repaymentdomain.TierTypeDiscount,
		Rate:              decimal.NewFromInt(10),
		DiscountAmount:    breakdown.DiscountDeduction,
		InterestAmount:    decimal.Zero,
		Breakdown:         datatypes.NewJSONType(breakdown),
		CalculationMethod: repaymentdomain.CalculationMethod,
		PaymentMode:       "online",
		Status:            repaymentdomain.StatusCompleted,
		CreatedAt:         now,
	}
	require.NoError(t, conn.Create(&repayment).Error)

	var stored repaymentdomain.Repayment
	require.NoError(t, conn.First(&stored, "id = ?", repayment.ID).Error)
	assert.True(t, stored.Breakdown.Data().FinalPayable.Equal(decimal.NewFromInt(90000)))

	second := purchase
	second.ID = node.Generate()
	require.NoError(t, conn.Create(&second).Error)

	both := repayment
	both.ID = node.Generate()
	both.Number = "REP-TEST-2"
	both.PurchaseID = second.ID
	both.InterestAmount = decimal.NewFromInt(1)
	assert.Error(t, conn.Create(&both).Error, "discount and interest are exclusive")

	histories := historyrepository.Provide()
	h := historydomain.NewHistory("vendor-001")
	require.NoError(t, histories.Save(ctx, conn, &h, 0))
	assert.ErrorIs(t, histories.Save(ctx, conn, &h, 0), historydomain.ErrVersionConflict)
}
