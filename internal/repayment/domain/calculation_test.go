package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_Scenarios(t *testing.T) {
	calc := NewCalculator("₹")

	tests := []struct {
		name         string
		day          int
		wantType     TierType
		wantTier     string
		wantDiscount string
		wantInterest string
		wantFinal    string
		wantSummary  Summary
	}{
		{
			name:         "early repayment earns the discount",
			day:          15,
			wantType:     TierTypeDiscount,
			wantTier:     "Early Bird",
			wantDiscount: "10000",
			wantInterest: "0",
			wantFinal:    "90000",
			wantSummary: Summary{
				YouPay:  "₹90,000",
				YouSave: "₹10,000",
				Penalty: "₹0",
				Message: "🎉 You're saving ₹10000.00 by paying early! (10% discount)",
			},
		},
		{
			name:         "late repayment pays interest",
			day:          110,
			wantType:     TierTypeInterest,
			wantTier:     "Grace Over",
			wantDiscount: "0",
			wantInterest: "5000",
			wantFinal:    "105000",
			wantSummary: Summary{
				YouPay:  "₹1,05,000",
				YouSave: "₹0",
				Penalty: "₹5,000",
				Message: "⚠️ Late payment penalty of ₹5000.00 applied (5% interest)",
			},
		},
		{
			name:         "neutral zone leaves principal unchanged",
			day:          95,
			wantType:     TierTypeNone,
			wantTier:     NeutralZoneLabel,
			wantDiscount: "0",
			wantInterest: "0",
			wantFinal:    "100000",
			wantSummary: Summary{
				YouPay:  "₹1,00,000",
				YouSave: "₹0",
				Penalty: "₹0",
				Message: "Standard repayment - no discount or interest applied",
			},
		},
		{
			name:         "open-ended interest far out",
			day:          400,
			wantType:     TierTypeInterest,
			wantTier:     "Overdue",
			wantDiscount: "0",
			wantInterest: "10000",
			wantFinal:    "110000",
			wantSummary: Summary{
				YouPay:  "₹1,10,000",
				YouSave: "₹0",
				Penalty: "₹10,000",
				Message: "⚠️ Late payment penalty of ₹10000.00 applied (10% interest)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(purchase("100000"), defaultSnapshot(), atDay(tt.day))
			require.NoError(t, err)

			assert.Equal(t, tt.day, got.DaysElapsed)
			assert.Equal(t, tt.wantType, got.TierType)
			assert.Equal(t, tt.wantTier, got.TierApplied)
			assert.True(t, decimal.RequireFromString(tt.wantDiscount).Equal(got.DiscountAmount), got.DiscountAmount.String())
			assert.True(t, decimal.RequireFromString(tt.wantInterest).Equal(got.InterestAmount), got.InterestAmount.String())
			assert.True(t, decimal.RequireFromString(tt.wantFinal).Equal(got.FinalPayable), got.FinalPayable.String())
			assert.Equal(t, tt.wantSummary, got.Summary)
			assert.True(t, got.FinancialBreakdown.FinalPayable.Equal(got.FinalPayable))
		})
	}
}

func TestCalculate_BoundaryDaysFavourVendor(t *testing.T) {
	calc := NewCalculator("₹")

	got, err := calc.Calculate(purchase("100000"), defaultSnapshot(), atDay(30))
	require.NoError(t, err)
	assert.Equal(t, "Early Bird", got.TierApplied)
	assert.Equal(t, "1", got.TierID)

	got, err = calc.Calculate(purchase("100000"), defaultSnapshot(), atDay(120))
	require.NoError(t, err)
	assert.Equal(t, "Grace Over", got.TierApplied)
	assert.True(t, got.InterestRate.Equal(decimal.NewFromInt(5)))
}

func TestCalculate_DiscountCheckedBeforeInterest(t *testing.T) {
	// A broken configuration where both kinds cover day 50.
	snap := tierdomain.Snapshot{
		Discount: []tierdomain.Tier{tier(1, tierdomain.KindDiscount, "D", 0, 60, "3")},
		Interest: []tierdomain.Tier{tier(2, tierdomain.KindInterest, "I", 40, 100, "8")},
	}
	got, err := NewCalculator("₹").Calculate(purchase("80000"), snap, atDay(50))
	require.NoError(t, err)
	assert.Equal(t, TierTypeDiscount, got.TierType)
	assert.True(t, got.InterestAmount.IsZero())
}

func TestCalculate_RepaymentBeforePurchase(t *testing.T) {
	got, err := NewCalculator("₹").Calculate(purchase("60000"), defaultSnapshot(), purchasedAt.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, -1, got.DaysElapsed)
	assert.Equal(t, TierTypeNone, got.TierType)
	assert.True(t, got.FinalPayable.Equal(decimal.NewFromInt(60000)))
}

func TestCalculate_InvalidInput(t *testing.T) {
	calc := NewCalculator("₹")

	_, err := calc.Calculate(purchase("0"), defaultSnapshot(), atDay(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	p := purchase("50000")
	p.PurchasedAt = time.Time{}
	_, err = calc.Calculate(p, defaultSnapshot(), atDay(1))
	assert.ErrorIs(t, err, ErrMissingPurchaseDate)

	_, err = calc.Calculate(purchase("50000"), defaultSnapshot(), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidRepaymentDate)
}

func TestCalculate_ExclusiveAndBalanced(t *testing.T) {
	calc := NewCalculator("₹")
	for _, amount := range []string{"50000", "73456.78", "99999.99"} {
		for day := -3; day <= 200; day++ {
			got, err := calc.Calculate(purchase(amount), defaultSnapshot(), atDay(day))
			require.NoError(t, err)

			if got.DiscountAmount.IsPositive() {
				assert.True(t, got.InterestAmount.IsZero(), "day %d", day)
			}
			if got.InterestAmount.IsPositive() {
				assert.True(t, got.DiscountAmount.IsZero(), "day %d", day)
			}
			want := got.BaseAmount.Sub(got.DiscountAmount).Add(got.InterestAmount)
			assert.True(t, want.Equal(got.FinalPayable), "day %d amount %s", day, amount)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(base, base))
	assert.Equal(t, 0, DaysBetween(base, base.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(base, base.Add(24*time.Hour)))
	assert.Equal(t, -1, DaysBetween(base, base.Add(-time.Minute)))
	assert.Equal(t, -2, DaysBetween(base, base.Add(-25*time.Hour)))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0"},
		{"999", "₹999"},
		{"1000", "₹1,000"},
		{"1234.5", "₹1,234.5"},
		{"100000", "₹1,00,000"},
		{"1234567.891", "₹12,34,567.89"},
		{"-1500", "-₹1,500"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount("₹", decimal.RequireFromString(tt.in)), tt.in)
	}
	assert.Equal(t, "₹10000.00", FormatFixed("₹", decimal.NewFromInt(10000)))
}
