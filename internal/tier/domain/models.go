package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Kind string

const (
	KindDiscount Kind = "discount"
	KindInterest Kind = "interest"
)

// OpenEndedPeriodEnd is stored as the period end of open-ended tiers.
const OpenEndedPeriodEnd = math.MaxInt32

func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindDiscount:
		return KindDiscount, nil
	case KindInterest:
		return KindInterest, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Valid() bool {
	return k == KindDiscount || k == KindInterest
}

func (k Kind) Label() string {
	if k == KindInterest {
		return "Interest"
	}
	return "Discount"
}

type Tier struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Kind        Kind              `json:"kind" gorm:"type:text;not null;index:idx_repayment_tiers_kind_active,priority:1"`
	Code        string            `json:"code" gorm:"type:text;not null"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	PeriodStart int               `json:"period_start" gorm:"not null"`
	PeriodEnd   int               `json:"period_end" gorm:"not null"`
	Rate        decimal.Decimal   `json:"rate" gorm:"type:numeric(5,2);not null"`
	IsActive    bool              `json:"is_active" gorm:"not null;index:idx_repayment_tiers_kind_active,priority:2"`
	IsOpenEnded bool              `json:"is_open_ended" gorm:"not null"`
	Description string            `json:"description" gorm:"type:text"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedBy   string            `json:"created_by" gorm:"type:text"`
	UpdatedBy   string            `json:"updated_by" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Tier) TableName() string { return "repayment_tiers" }

// End returns the inclusive upper bound, OpenEndedPeriodEnd for open-ended tiers.
func (t Tier) End() int {
	if t.IsOpenEnded {
		return OpenEndedPeriodEnd
	}
	return t.PeriodEnd
}

// Covers reports whether days falls inside the tier, both bounds inclusive.
func (t Tier) Covers(days int) bool {
	return t.PeriodStart <= days && days <= t.End()
}

// Overlaps uses inclusive bounds: tiers sharing a boundary day overlap.
func (t Tier) Overlaps(other Tier) bool {
	return t.PeriodStart <= other.End() && other.PeriodStart <= t.End()
}

func (t Tier) PeriodLabel() string {
	if t.IsOpenEnded {
		return fmt.Sprintf("%d+ days", t.PeriodStart)
	}
	return fmt.Sprintf("%d-%d days", t.PeriodStart, t.PeriodEnd)
}

func (t Tier) conflictLabel() string {
	end := fmt.Sprint(t.PeriodEnd)
	if t.IsOpenEnded {
		end = "∞"
	}
	return fmt.Sprintf("%s (%d-%s days)", t.Name, t.PeriodStart, end)
}

// Snapshot is the active tier set of both kinds at one instant.
type Snapshot struct {
	Discount []Tier `json:"discount"`
	Interest []Tier `json:"interest"`
}

func (s Snapshot) Of(kind Kind) []Tier {
	if kind == KindInterest {
		return s.Interest
	}
	return s.Discount
}

func (s Snapshot) Empty() bool {
	return len(s.Discount) == 0 && len(s.Interest) == 0
}

// Boundaries returns the distinct period starts and closed period ends of
// both kinds in ascending order.
func (s Snapshot) Boundaries() []int {
	seen := map[int]struct{}{}
	var out []int
	add := func(v int) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, tiers := range [][]Tier{s.Discount, s.Interest} {
		for _, t := range tiers {
			add(t.PeriodStart)
			if !t.IsOpenEnded {
				add(t.PeriodEnd)
			}
		}
	}
	slices.Sort(out)
	return out
}
