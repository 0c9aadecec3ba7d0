package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_RowsAndAdvice(t *testing.T) {
	calc := NewCalculator("₹")
	now := purchasedAt.AddDate(0, 0, 20)
	offsets := []Offset{Today(), DayOffset(15), DayOffset(30), DayOffset(100), DayOffset(110)}

	got, err := calc.Project(purchase("100000"), defaultSnapshot(), offsets, now)
	require.NoError(t, err)
	require.Len(t, got.Projections, 5)

	today := got.Projections[0]
	assert.Equal(t, "Today", today.Label)
	assert.Equal(t, 20, today.Day)
	assert.True(t, today.IsToday)
	assert.Equal(t, "2025-01-21", today.Date)
	assert.Equal(t, "✅ Great! 10% discount available now", today.PaymentAdvice)

	past := got.Projections[1]
	assert.Equal(t, "Day 15", past.Label)
	assert.Equal(t, -5, past.DaysFromNow)
	assert.True(t, past.IsPast)

	soon := got.Projections[2]
	assert.Equal(t, 10, soon.DaysFromNow)
	assert.True(t, soon.IsFuture)
	assert.Equal(t, "💰 10% discount if you pay in 10 days", soon.PaymentAdvice)

	neutral := got.Projections[3]
	assert.Equal(t, TierTypeNone, neutral.TierType)
	assert.Equal(t, "Neutral zone - no benefit or penalty", neutral.PaymentAdvice)

	late := got.Projections[4]
	assert.Equal(t, TierTypeInterest, late.TierType)
	assert.Equal(t, "⚠️ 5% interest will apply in 90 days", late.PaymentAdvice)
	assert.True(t, late.FinalPayable.Equal(decimal.NewFromInt(105000)))

	require.NotNil(t, got.BestOption)
	assert.Equal(t, 20, got.BestOption.Day)
	assert.Equal(t, "2025-01-21", got.BestOption.Date)
	assert.True(t, got.BestOption.Amount.Equal(decimal.NewFromInt(90000)))

	assert.Equal(t, Recommendation{
		Type:    "discount",
		Message: "💰 Pay within 20 days to save ₹10000.00",
		Urgency: "high",
	}, got.Recommendation)
}

func TestProject_WarnsBeforeInterest(t *testing.T) {
	calc := NewCalculator("₹")
	now := purchasedAt.AddDate(0, 0, 95)
	offsets := []Offset{DayOffset(15), DayOffset(100), DayOffset(110)}

	got, err := calc.Project(purchase("100000"), defaultSnapshot(), offsets, now)
	require.NoError(t, err)

	require.NotNil(t, got.BestOption)
	assert.Equal(t, 100, got.BestOption.Day)
	assert.Equal(t, "warning", got.Recommendation.Type)
	assert.Equal(t, "⚠️ Interest charges begin on day 110. Pay before then!", got.Recommendation.Message)
	assert.Equal(t, "medium", got.Recommendation.Urgency)
}

func TestProject_NoUpcomingOption(t *testing.T) {
	calc := NewCalculator("₹")
	now := purchasedAt.AddDate(0, 0, 200)

	got, err := calc.Project(purchase("100000"), defaultSnapshot(), []Offset{DayOffset(15), DayOffset(30)}, now)
	require.NoError(t, err)
	assert.Nil(t, got.BestOption)
	assert.Equal(t, "neutral", got.Recommendation.Type)
	assert.Equal(t, "low", got.Recommendation.Urgency)
}

func TestProject_InvalidPurchase(t *testing.T) {
	_, err := NewCalculator("₹").Project(purchase("-1"), defaultSnapshot(), nil, purchasedAt)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDefaultOffsets_FollowBoundaries(t *testing.T) {
	got := DefaultOffsets(defaultSnapshot())

	require.NotEmpty(t, got)
	assert.True(t, got[0].Today)

	days := make([]int, 0, len(got)-1)
	for _, o := range got[1:] {
		assert.False(t, o.Today)
		days = append(days, o.Day)
	}
	assert.Equal(t, []int{0, 1, 29, 30, 31, 39, 40, 41, 59, 60, 61, 89, 90, 91, 104, 105, 106, 119, 120, 121}, days)
}

func TestDefaultOffsets_LegacyWithoutTiers(t *testing.T) {
	got := DefaultOffsets(tierdomain.Snapshot{})
	require.Len(t, got, len(LegacyOffsets)+1)
	assert.True(t, got[0].Today)
	assert.Equal(t, 15, got[1].Day)
	assert.Equal(t, 130, got[len(got)-1].Day)
}

func TestParseOffsets(t *testing.T) {
	got, err := ParseOffsets([]string{"today", "15", " 30 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []Offset{Today(), DayOffset(15), DayOffset(30)}, got)

	_, err = ParseOffsets([]string{"-1"})
	assert.ErrorIs(t, err, ErrInvalidOffset)

	_, err = ParseOffsets([]string{"soon"})
	assert.ErrorIs(t, err, ErrInvalidOffset)
}
