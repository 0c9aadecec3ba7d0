package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
)

// LegacyOffsets is the schedule shown when no tier is configured.
var LegacyOffsets = []int{15, 30, 35, 40, 50, 60, 75, 90, 100, 105, 112, 120, 130}

// Offset is one projection point: today, or a day count after the purchase.
type Offset struct {
	Today bool
	Day   int
}

func Today() Offset { return Offset{Today: true} }
func DayOffset(d int) Offset { return Offset{Day: d} }

// ParseOffsets accepts "today" or non-negative day counts.
func ParseOffsets(values []string) ([]Offset, error) {
	out := make([]Offset, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.EqualFold(v, "today") {
			out = append(out, Today())
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, v)
		}
		out = append(out, DayOffset(n))
	}
	return out, nil
}

// DefaultOffsets returns today followed by the day before, on and after every
// tier boundary, so no rate change is hidden from the schedule.
func DefaultOffsets(tiers tierdomain.Snapshot) []Offset {
	boundaries := tiers.Boundaries()
	days := make([]int, 0, len(boundaries)*3)
	if len(boundaries) == 0 {
		days = append(days, LegacyOffsets...)
	}
	for _, b := range boundaries {
		for _, d := range []int{b - 1, b, b + 1} {
			if d >= 0 {
				days = append(days, d)
			}
		}
	}
	slices.Sort(days)
	days = slices.Compact(days)

	out := make([]Offset, 0, len(days)+1)
	out = append(out, Today())
	for _, d := range days {
		out = append(out, DayOffset(d))
	}
	return out
}

type ProjectionRow struct {
	Label       string `json:"label"`
	Day         int    `json:"day"`
	Date        string `json:"date"`
	DaysFromNow int    `json:"days_from_now"`
	IsPast      bool   `json:"is_past"`
	IsFuture    bool   `json:"is_future"`
	IsToday     bool   `json:"is_today"`
	FinancialBreakdown
	TierApplied   string          `json:"tier_applied"`
	TierType      TierType        `json:"tier_type"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	PaymentAdvice string          `json:"payment_advice"`
}

type BestOption struct {
	Day         int             `json:"day"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Savings     decimal.Decimal `json:"savings"`
	TierApplied string          `json:"tier_applied"`
}

type Recommendation struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Urgency string `json:"urgency"`
}

type Projection struct {
	PurchaseID     string          `json:"purchase_id"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	PurchaseDate   time.Time       `json:"purchase_date"`
	Projections    []ProjectionRow `json:"projections"`
	BestOption     *BestOption     `json:"best_option"`
	Recommendation Recommendation  `json:"recommendation"`
}

// Project prices p at every offset. An empty offsets list uses DefaultOffsets.
func (c Calculator) Project(p Purchase, tiers tierdomain.Snapshot, offsets []Offset, now time.Time) (Projection, error) {
	if len(offsets) == 0 {
		offsets = DefaultOffsets(tiers)
	}

	rows := make([]ProjectionRow, 0, len(offsets))
	for _, off := range offsets {
		var (
			date        time.Time
			daysFromNow int
			label       string
		)
		if off.Today {
			date = now
			label = "Today"
		} else {
			date = p.PurchasedAt.AddDate(0, 0, off.Day)
			daysFromNow = DaysBetween(now, date)
			label = fmt.Sprintf("Day %d", off.Day)
		}

		calc, err := c.Calculate(p, tiers, date)
		if err != nil {
			return Projection{}, err
		}

		dayNumber := off.Day
		if off.Today {
			dayNumber = calc.DaysElapsed
		}
		rows = append(rows, ProjectionRow{
			Label:              label,
			Day:                dayNumber,
			Date:               date.UTC().Format(time.DateOnly),
			DaysFromNow:        daysFromNow,
			IsPast:             daysFromNow < 0,
			IsFuture:           daysFromNow > 0,
			IsToday:            daysFromNow == 0,
			FinancialBreakdown: calc.FinancialBreakdown,
			TierApplied:        calc.TierApplied,
			TierType:           calc.TierType,
			DiscountRate:       calc.DiscountRate,
			InterestRate:       calc.InterestRate,
			PaymentAdvice:      advice(calc, daysFromNow),
		})
	}

	return Projection{
		PurchaseID:     p.ID,
		PurchaseAmount: p.Amount,
		PurchaseDate:   p.PurchasedAt,
		Projections:    rows,
		BestOption:     bestOption(rows),
		Recommendation: c.recommend(rows),
	}, nil
}

func advice(calc Calculation, daysFromNow int) string {
	switch calc.TierType {
	case TierTypeDiscount:
		if daysFromNow <= 0 {
			return fmt.Sprintf("✅ Great! %s%% discount available now", calc.DiscountRate.String())
		}
		return fmt.Sprintf("💰 %s%% discount if you pay in %d days", calc.DiscountRate.String(), daysFromNow)
	case TierTypeInterest:
		if daysFromNow <= 0 {
			return "⚠️ Already in interest zone - pay now to avoid more charges"
		}
		return fmt.Sprintf("⚠️ %s%% interest will apply in %d days", calc.InterestRate.String(), daysFromNow)
	default:
		if daysFromNow <= 0 {
			return "Standard repayment - no discount or penalty"
		}
		return "Neutral zone - no benefit or penalty"
	}
}

func upcoming(rows []ProjectionRow) []ProjectionRow {
	out := make([]ProjectionRow, 0, len(rows))
	for _, r := range rows {
		if !r.IsPast {
			out = append(out, r)
		}
	}
	return out
}

// bestOption keeps the first row with the highest savings minus penalty.
func bestOption(rows []ProjectionRow) *BestOption {
	options := upcoming(rows)
	if len(options) == 0 {
		return nil
	}

	best := options[0]
	bestValue := best.SavingsFromEarlyPayment.Sub(best.PenaltyFromLatePayment)
	for _, r := range options[1:] {
		if v := r.SavingsFromEarlyPayment.Sub(r.PenaltyFromLatePayment); v.GreaterThan(bestValue) {
			best, bestValue = r, v
		}
	}
	return &BestOption{
		Day:         best.Day,
		Date:        best.Date,
		Amount:      best.FinalPayable,
		Savings:     best.SavingsFromEarlyPayment,
		TierApplied: best.TierApplied,
	}
}

func (c Calculator) recommend(rows []ProjectionRow) Recommendation {
	options := upcoming(rows)

	var maxSaving *ProjectionRow
	for i := range options {
		r := &options[i]
		if r.SavingsFromEarlyPayment.IsPositive() &&
			(maxSaving == nil || r.SavingsFromEarlyPayment.GreaterThan(maxSaving.SavingsFromEarlyPayment)) {
			maxSaving = r
		}
	}
	if maxSaving != nil {
		return Recommendation{
			Type: "discount",
			Message: fmt.Sprintf("💰 Pay within %d days to save %s",
				maxSaving.Day, FormatFixed(c.Currency, maxSaving.SavingsFromEarlyPayment)),
			Urgency: "high",
		}
	}

	for _, r := range options {
		if r.TierType == TierTypeInterest {
			return Recommendation{
				Type:    "warning",
				Message: fmt.Sprintf("⚠️ Interest charges begin on day %d. Pay before then!", r.Day),
				Urgency: "medium",
			}
		}
	}

	return Recommendation{
		Type:    "neutral",
		Message: "Standard repayment schedule - pay at your convenience",
		Urgency: "low",
	}
}
