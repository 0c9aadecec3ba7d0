package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeparation(t *testing.T) {
	lastDiscount := closedTier(1, KindDiscount, "Last", 61, 90, "2")

	t.Run("nothing configured", func(t *testing.T) {
		report := Separation(nil, nil)
		assert.True(t, report.Valid)
		assert.Equal(t, []string{"No active discount or interest tiers configured"}, report.Warnings)
	})

	t.Run("only discounts", func(t *testing.T) {
		report := Separation(&lastDiscount, nil)
		assert.True(t, report.Valid)
		assert.Equal(t, []string{"Only discount tiers configured, no interest tiers"}, report.Warnings)
	})

	t.Run("only interest", func(t *testing.T) {
		first := closedTier(2, KindInterest, "First", 105, 120, "5")
		report := Separation(nil, &first)
		assert.True(t, report.Valid)
		assert.Equal(t, []string{"Only interest tiers configured, no discount tiers"}, report.Warnings)
	})

	t.Run("neutral zone", func(t *testing.T) {
		first := closedTier(2, KindInterest, "First", 105, 120, "5")
		report := Separation(&lastDiscount, &first)
		assert.True(t, report.Valid)
		assert.True(t, report.HasNeutralZone)
		require.NotNil(t, report.NeutralZoneStart)
		require.NotNil(t, report.NeutralZoneEnd)
		assert.Equal(t, 91, *report.NeutralZoneStart)
		assert.Equal(t, 104, *report.NeutralZoneEnd)
		assert.Equal(t, 14, report.NeutralZoneDays)
		assert.Equal(t, []string{"Neutral zone exists: Days 91 to 104 (14 days) have 0% discount and 0% interest."}, report.Warnings)
	})

	t.Run("adjacent", func(t *testing.T) {
		first := closedTier(2, KindInterest, "First", 91, 120, "5")
		report := Separation(&lastDiscount, &first)
		assert.True(t, report.Valid)
		assert.False(t, report.HasNeutralZone)
		assert.Equal(t, 0, report.NeutralZoneDays)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "Very small neutral zone (0 day(s))")
	})

	t.Run("overlapping", func(t *testing.T) {
		first := closedTier(2, KindInterest, "First", 90, 120, "5")
		report := Separation(&lastDiscount, &first)
		assert.False(t, report.Valid)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "Last discount ends at day 90, but first interest starts at day 90")
	})
}

func TestBuildSystemStatus(t *testing.T) {
	snap := separatedSnapshot()
	last := snap.Discount[3]
	first := snap.Interest[0]

	status := BuildSystemStatus(snap.Discount, snap.Interest, Separation(&last, &first))
	assert.True(t, status.IsHealthy)
	assert.Equal(t, 4, status.Discount.Count)
	assert.Equal(t, "0-30 days", status.Discount.Tiers[0].Period)
	assert.Equal(t, "10%", status.Discount.Tiers[0].Rate)
	assert.Equal(t, "121+ days", status.Interest.Tiers[1].Period)
	assert.Len(t, status.Warnings, 1)

	touching := []Tier{
		closedTier(1, KindDiscount, "A", 0, 30, "10"),
		closedTier(2, KindDiscount, "B", 30, 40, "6"),
	}
	status = BuildSystemStatus(touching, nil, Separation(&touching[1], nil))
	assert.False(t, status.IsHealthy)
	assert.False(t, status.Discount.Valid)
	assert.True(t, status.Interest.Valid)
	assert.Len(t, status.Errors, 1)
}

func TestSnapshotBoundaries(t *testing.T) {
	snap := separatedSnapshot()
	assert.Equal(t, []int{0, 30, 31, 40, 41, 60, 61, 90, 105, 120, 121}, snap.Boundaries())
	assert.True(t, Snapshot{}.Empty())
}
