package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
)

var purchasedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func tier(id int64, kind tierdomain.Kind, name string, start, end int, rate string) tierdomain.Tier {
	return tierdomain.Tier{
		ID:          snowflake.ID(id),
		Kind:        kind,
		Name:        name,
		PeriodStart: start,
		PeriodEnd:   end,
		Rate:        decimal.RequireFromString(rate),
		IsActive:    true,
	}
}

func openTier(id int64, name string, start int, rate string) tierdomain.Tier {
	t := tier(id, tierdomain.KindInterest, name, start, tierdomain.OpenEndedPeriodEnd, rate)
	t.IsOpenEnded = true
	return t
}

// defaultSnapshot mirrors the seeded schedule, shared boundary days included.
func defaultSnapshot() tierdomain.Snapshot {
	return tierdomain.Snapshot{
		Discount: []tierdomain.Tier{
			tier(1, tierdomain.KindDiscount, "Early Bird", 0, 30, "10"),
			tier(2, tierdomain.KindDiscount, "Quick Payer", 30, 40, "6"),
			tier(3, tierdomain.KindDiscount, "Standard", 40, 60, "4"),
			tier(4, tierdomain.KindDiscount, "Last Call", 60, 90, "2"),
		},
		Interest: []tierdomain.Tier{
			tier(5, tierdomain.KindInterest, "Grace Over", 105, 120, "5"),
			openTier(6, "Overdue", 120, "10"),
		},
	}
}

func purchase(amount string) Purchase {
	return Purchase{
		ID:          "1001",
		Amount:      decimal.RequireFromString(amount),
		PurchasedAt: purchasedAt,
	}
}

func atDay(days int) time.Time {
	return purchasedAt.AddDate(0, 0, days).Add(3 * time.Hour)
}
