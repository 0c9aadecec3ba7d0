package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
)

type TierType string

const (
	TierTypeDiscount TierType = "discount"
	TierTypeInterest TierType = "interest"
	TierTypeNone     TierType = "none"
)

const (
	NeutralZoneLabel  = "Neutral Zone (No Discount, No Interest)"
	CalculationMethod = "tiered_discount_interest"
)

const day = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// Purchase is the part of a credit purchase a calculation reads.
type Purchase struct {
	ID          string
	Amount      decimal.Decimal
	PurchasedAt time.Time
}

type FinancialBreakdown struct {
	BaseAmount              decimal.Decimal `json:"base_amount"`
	DiscountDeduction       decimal.Decimal `json:"discount_deduction"`
	InterestAddition        decimal.Decimal `json:"interest_addition"`
	FinalPayable            decimal.Decimal `json:"final_payable"`
	SavingsFromEarlyPayment decimal.Decimal `json:"savings_from_early_payment"`
	PenaltyFromLatePayment  decimal.Decimal `json:"penalty_from_late_payment"`
}

type Summary struct {
	YouPay  string `json:"you_pay"`
	YouSave string `json:"you_save"`
	Penalty string `json:"penalty"`
	Message string `json:"message"`
}

// Calculation is the amount due for one purchase on one repayment date.
// At most one of DiscountAmount and InterestAmount is non-zero and
// FinalPayable = BaseAmount - DiscountAmount + InterestAmount.
type Calculation struct {
	PurchaseID              string             `json:"purchase_id"`
	PurchaseDate            time.Time          `json:"purchase_date"`
	RepaymentDate           time.Time          `json:"repayment_date"`
	DaysElapsed             int                `json:"days_elapsed"`
	BaseAmount              decimal.Decimal    `json:"base_amount"`
	DiscountTier            string             `json:"discount_tier,omitempty"`
	DiscountRate            decimal.Decimal    `json:"discount_rate"`
	DiscountAmount          decimal.Decimal    `json:"discount_amount"`
	InterestTier            string             `json:"interest_tier,omitempty"`
	InterestRate            decimal.Decimal    `json:"interest_rate"`
	InterestAmount          decimal.Decimal    `json:"interest_amount"`
	FinalPayable            decimal.Decimal    `json:"final_payable"`
	SavingsFromEarlyPayment decimal.Decimal    `json:"savings_from_early_payment"`
	PenaltyFromLatePayment  decimal.Decimal    `json:"penalty_from_late_payment"`
	TierApplied             string             `json:"tier_applied"`
	TierID                  string             `json:"tier_id,omitempty"`
	TierType                TierType           `json:"tier_type"`
	FinancialBreakdown      FinancialBreakdown `json:"financial_breakdown"`
	Summary                 Summary            `json:"summary"`
}

// Rate returns the rate that priced the calculation, zero when none did.
func (c Calculation) Rate() decimal.Decimal {
	switch c.TierType {
	case TierTypeDiscount:
		return c.DiscountRate
	case TierTypeInterest:
		return c.InterestRate
	}
	return decimal.Zero
}

// Calculator prices repayments against a tier snapshot. It holds no state
// besides the currency symbol and is safe for concurrent use.
type Calculator struct {
	Currency string
}

func NewCalculator(currency string) Calculator {
	if currency == "" {
		currency = "₹"
	}
	return Calculator{Currency: currency}
}

// Calculate resolves the discount tier first and only falls back to the
// interest tier when no discount applies.
func (c Calculator) Calculate(p Purchase, tiers tierdomain.Snapshot, repaymentDate time.Time) (Calculation, error) {
	if !p.Amount.IsPositive() {
		return Calculation{}, ErrInvalidAmount
	}
	if p.PurchasedAt.IsZero() {
		return Calculation{}, ErrMissingPurchaseDate
	}
	if repaymentDate.IsZero() {
		return Calculation{}, ErrInvalidRepaymentDate
	}

	calc := Calculation{
		PurchaseID:              p.ID,
		PurchaseDate:            p.PurchasedAt,
		RepaymentDate:           repaymentDate,
		DaysElapsed:             DaysBetween(p.PurchasedAt, repaymentDate),
		BaseAmount:              p.Amount,
		DiscountRate:            decimal.Zero,
		DiscountAmount:          decimal.Zero,
		InterestRate:            decimal.Zero,
		InterestAmount:          decimal.Zero,
		FinalPayable:            p.Amount,
		SavingsFromEarlyPayment: decimal.Zero,
		PenaltyFromLatePayment:  decimal.Zero,
		TierType:                TierTypeNone,
	}

	if tier := tierdomain.Resolve(tiers.Discount, tierdomain.KindDiscount, calc.DaysElapsed); tier != nil {
		amount := percentOf(p.Amount, tier.Rate)
		calc.DiscountTier = tier.Name
		calc.DiscountRate = tier.Rate
		calc.DiscountAmount = amount
		calc.SavingsFromEarlyPayment = amount
		calc.FinalPayable = p.Amount.Sub(amount)
		calc.TierApplied = tier.Name
		calc.TierID = tier.ID.String()
		calc.TierType = TierTypeDiscount
		return c.finish(calc), nil
	}

	if tier := tierdomain.Resolve(tiers.Interest, tierdomain.KindInterest, calc.DaysElapsed); tier != nil {
		amount := percentOf(p.Amount, tier.Rate)
		calc.InterestTier = tier.Name
		calc.InterestRate = tier.Rate
		calc.InterestAmount = amount
		calc.PenaltyFromLatePayment = amount
		calc.FinalPayable = p.Amount.Add(amount)
		calc.TierApplied = tier.Name
		calc.TierID = tier.ID.String()
		calc.TierType = TierTypeInterest
		return c.finish(calc), nil
	}

	calc.TierApplied = NeutralZoneLabel
	return c.finish(calc), nil
}

func (c Calculator) finish(calc Calculation) Calculation {
	calc.FinancialBreakdown = FinancialBreakdown{
		BaseAmount:              calc.BaseAmount,
		DiscountDeduction:       calc.DiscountAmount,
		InterestAddition:        calc.InterestAmount,
		FinalPayable:            calc.FinalPayable,
		SavingsFromEarlyPayment: calc.SavingsFromEarlyPayment,
		PenaltyFromLatePayment:  calc.PenaltyFromLatePayment,
	}
	calc.Summary = Summary{
		YouPay:  FormatAmount(c.Currency, calc.FinalPayable),
		YouSave: c.amountOrZero(calc.SavingsFromEarlyPayment),
		Penalty: c.amountOrZero(calc.PenaltyFromLatePayment),
		Message: c.message(calc),
	}
	return calc
}

func (c Calculator) amountOrZero(d decimal.Decimal) string {
	if d.IsPositive() {
		return FormatAmount(c.Currency, d)
	}
	return c.Currency + "0"
}

func (c Calculator) message(calc Calculation) string {
	switch calc.TierType {
	case TierTypeDiscount:
		return fmt.Sprintf("🎉 You're saving %s by paying early! (%s%% discount)",
			FormatFixed(c.Currency, calc.SavingsFromEarlyPayment), calc.DiscountRate.String())
	case TierTypeInterest:
		return fmt.Sprintf("⚠️ Late payment penalty of %s applied (%s%% interest)",
			FormatFixed(c.Currency, calc.PenaltyFromLatePayment), calc.InterestRate.String())
	default:
		return "Standard repayment - no discount or interest applied"
	}
}

// DaysBetween is the floor of the whole days from from to to. It is negative
// when to is before from.
func DaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}
