package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"gorm.io/gorm"
)

const seedActor = "system"

type defaultTier struct {
	kind        tierdomain.Kind
	name        string
	start       int
	end         int
	rate        string
	openEnded   bool
	description string
}

// The discount rows share boundary days; the resolver settles those in the
// vendor's favour.
var defaultTiers = []defaultTier{
	{tierdomain.KindDiscount, "Early Bird", 0, 30, "10", false, "Repay within a month"},
	{tierdomain.KindDiscount, "Quick Payer", 30, 40, "6", false, ""},
	{tierdomain.KindDiscount, "Standard", 40, 60, "4", false, ""},
	{tierdomain.KindDiscount, "Last Call", 60, 90, "2", false, ""},
	{tierdomain.KindInterest, "Grace Over", 105, 120, "5", false, ""},
	{tierdomain.KindInterest, "Overdue", 120, tierdomain.OpenEndedPeriodEnd, "10", true, "Applies to every day past 120"},
}

// EnsureDefaultTiers inserts the default schedule when the tier table is
// empty and returns the number of rows written. Rows go in directly, without
// the schedule validator.
func EnsureDefaultTiers(ctx context.Context, db *gorm.DB, node *snowflake.Node) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		return 0, errors.New("seed id generator is required")
	}

	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&tierdomain.Tier{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		rows := make([]tierdomain.Tier, 0, len(defaultTiers))
		for _, d := range defaultTiers {
			rows = append(rows, tierdomain.Tier{
				ID:          node.Generate(),
				Kind:        d.kind,
				Code:        slug.Make(d.name),
				Name:        d.name,
				PeriodStart: d.start,
				PeriodEnd:   d.end,
				Rate:        decimal.RequireFromString(d.rate),
				IsActive:    true,
				IsOpenEnded: d.openEnded,
				Description: d.description,
				CreatedBy:   seedActor,
				UpdatedBy:   seedActor,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		inserted = len(rows)
		return nil
	})
	return inserted, err
}
