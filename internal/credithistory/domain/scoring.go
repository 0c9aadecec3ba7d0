package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/vendorcredit/internal/config"
)

// RepaymentOutcome is the part of a finalized repayment the history keeps.
type RepaymentOutcome struct {
	BaseAmount     decimal.Decimal
	FinalPayable   decimal.Decimal
	DiscountAmount decimal.Decimal
	InterestAmount decimal.Decimal
	DaysElapsed    int
	RepaidAt       time.Time
}

// Score rates a vendor from 0 to 100. Every factor subtracts from a perfect
// score: the share of late repayments, an average above the target days, the
// share of interest among all adjustments, and a last repayment noticeably
// slower than the average.
func Score(h CreditHistory, policy config.ScoringPolicy) (int, error) {
	if err := h.Check(); err != nil {
		return 0, err
	}
	if h.TotalRepaymentCount == 0 {
		return DefaultScore, nil
	}

	score := 100.0

	onTimeRate := float64(h.OnTimeRepaymentCount) / float64(h.TotalRepaymentCount)
	score -= (1 - onTimeRate) * policy.OnTimeWeight

	target := float64(policy.TargetAverageDays)
	if avg := float64(h.AvgRepaymentDays); avg > target {
		score -= math.Min(((avg-target)/target)*policy.AverageDaysWeight, policy.AverageDaysWeight)
	}

	if h.TotalDiscountsEarned.IsPositive() || h.TotalInterestPaid.IsPositive() {
		interest := h.TotalInterestPaid.InexactFloat64()
		ratio := interest / (h.TotalDiscountsEarned.InexactFloat64() + interest + 1)
		score -= ratio * policy.InterestRatioWeight
	}

	if h.LastRepaymentDays != nil && *h.LastRepaymentDays > h.AvgRepaymentDays+policy.DeclineMarginDays {
		score -= policy.DeclinePenalty
	}

	return int(roundHalfUp(math.Max(0, math.Min(100, score)))), nil
}

// ApplyRepayment folds one repayment into h and recomputes the score from the
// updated aggregates. h itself is left untouched.
func ApplyRepayment(h CreditHistory, outcome RepaymentOutcome, policy config.ScoringPolicy) (CreditHistory, error) {
	if err := h.Check(); err != nil {
		return h, err
	}

	next := h
	next.TotalCreditTaken = h.TotalCreditTaken.Add(outcome.BaseAmount)
	next.TotalRepaid = h.TotalRepaid.Add(outcome.FinalPayable)
	next.TotalDiscountsEarned = h.TotalDiscountsEarned.Add(outcome.DiscountAmount)
	next.TotalInterestPaid = h.TotalInterestPaid.Add(outcome.InterestAmount)

	next.TotalRepaymentCount = h.TotalRepaymentCount + 1
	if outcome.DaysElapsed <= policy.OnTimeThresholdDays {
		next.OnTimeRepaymentCount++
	} else {
		next.LateRepaymentCount++
	}

	n := float64(next.TotalRepaymentCount)
	next.AvgRepaymentDays = int(roundHalfUp((float64(h.AvgRepaymentDays)*(n-1) + float64(outcome.DaysElapsed)) / n))

	repaidAt := outcome.RepaidAt
	days := outcome.DaysElapsed
	next.LastRepaymentDate = &repaidAt
	next.LastRepaymentDays = &days

	score, err := Score(next, policy)
	if err != nil {
		return h, err
	}
	next.CreditScore = score
	return next, nil
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
