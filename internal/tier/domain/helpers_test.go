package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

func closedTier(id int64, kind Kind, name string, start, end int, rate string) Tier {
	return Tier{
		ID:          snowflake.ID(id),
		Kind:        kind,
		Name:        name,
		PeriodStart: start,
		PeriodEnd:   end,
		Rate:        decimal.RequireFromString(rate),
		IsActive:    true,
	}
}

func openTier(id int64, name string, start int, rate string) Tier {
	t := closedTier(id, KindInterest, name, start, OpenEndedPeriodEnd, rate)
	t.IsOpenEnded = true
	return t
}

// separatedSnapshot is a valid configuration: non-touching discount tiers up
// to day 90, a neutral zone, then interest from day 105.
func separatedSnapshot() Snapshot {
	return Snapshot{
		Discount: []Tier{
			closedTier(1, KindDiscount, "Early Bird", 0, 30, "10"),
			closedTier(2, KindDiscount, "Quick", 31, 40, "6"),
			closedTier(3, KindDiscount, "Standard", 41, 60, "4"),
			closedTier(4, KindDiscount, "Late Discount", 61, 90, "2"),
		},
		Interest: []Tier{
			closedTier(5, KindInterest, "Grace Over", 105, 120, "5"),
			openTier(6, "Overdue", 121, "10"),
		},
	}
}
