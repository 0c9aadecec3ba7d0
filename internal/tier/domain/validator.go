package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
)

// ValidationResult is the outcome of a tier check. Warnings never block.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult() ValidationResult {
	return ValidationResult{Errors: []string{}, Warnings: []string{}}
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r ValidationResult) seal() ValidationResult {
	r.Valid = len(r.Errors) == 0
	return r
}

// ValidationPolicy holds the advisory thresholds.
type ValidationPolicy struct {
	DiscountWarnRate decimal.Decimal
	InterestWarnRate decimal.Decimal
}

func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{
		DiscountWarnRate: decimal.NewFromInt(20),
		InterestWarnRate: decimal.NewFromInt(15),
	}
}

// Normalize pins the period end of open-ended tiers to OpenEndedPeriodEnd.
func Normalize(t *Tier) {
	if t.IsOpenEnded {
		t.PeriodEnd = OpenEndedPeriodEnd
	}
}

// ValidateCandidate decides whether candidate may be persisted next to the
// active tiers in snapshot. excludeID skips the tier being edited. Structural
// errors are returned before any comparison with other tiers; inactive
// candidates are only checked structurally.
func ValidateCandidate(candidate Tier, snapshot Snapshot, excludeID snowflake.ID, policy ValidationPolicy) ValidationResult {
	res := newResult()
	Normalize(&candidate)

	validateStructure(&res, candidate)
	if len(res.Errors) > 0 {
		return res.seal()
	}

	warnRate(&res, candidate, policy)
	if !candidate.IsActive {
		return res.seal()
	}

	same := others(snapshot.Of(candidate.Kind), excludeID)
	var conflicts []string
	for _, t := range same {
		if candidate.Overlaps(t) {
			conflicts = append(conflicts, t.conflictLabel())
		}
	}
	if len(conflicts) > 0 {
		res.fail("Period overlaps with existing tier(s): %s", strings.Join(conflicts, ", "))
	}

	discounts := others(snapshot.Discount, excludeID)
	interests := others(snapshot.Interest, excludeID)

	switch candidate.Kind {
	case KindDiscount:
		if len(interests) > 0 {
			firstInterestStart := minStart(interests)
			if candidate.PeriodEnd >= firstInterestStart {
				res.fail("This discount tier (ending at day %d) would overlap with existing interest tier (starting at day %d). Discount tiers must end before interest tiers begin.",
					candidate.PeriodEnd, firstInterestStart)
			}
		}
		discounts = append(discounts, candidate)
	case KindInterest:
		if len(discounts) > 0 {
			lastDiscountEnd := maxEnd(discounts)
			if candidate.PeriodStart <= lastDiscountEnd {
				res.fail("This interest tier (starting at day %d) would overlap with existing discount tier (ending at day %d). Interest tiers must start after discount tiers end.",
					candidate.PeriodStart, lastDiscountEnd)
			}
		}
		interests = append(interests, candidate)
	}

	if len(res.Errors) == 0 && len(discounts) > 0 && len(interests) > 0 {
		if gap := minStart(interests) - maxEnd(discounts) - 1; gap < 1 {
			res.warn("Very small neutral zone (%d day(s)) between discounts and interests. Consider increasing the gap for clarity.", gap)
		}
	}

	return res.seal()
}

func validateStructure(res *ValidationResult, t Tier) {
	if !t.Kind.Valid() {
		res.fail("Tier kind must be discount or interest")
		return
	}
	if strings.TrimSpace(t.Name) == "" {
		res.fail("Tier name is required")
	}
	if t.PeriodStart < 0 {
		res.fail("Period start cannot be negative")
	}
	if t.IsOpenEnded && t.Kind != KindInterest {
		res.fail("Only interest tiers can be open-ended")
	}
	if !t.IsOpenEnded && t.PeriodEnd <= t.PeriodStart {
		if t.Kind == KindInterest {
			res.fail("Period end must be greater than period start (unless tier is open-ended)")
		} else {
			res.fail("Period end must be greater than period start")
		}
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(hundred) {
		res.fail("%s rate must be between 0 and 100", t.Kind.Label())
	}
}

func warnRate(res *ValidationResult, t Tier, policy ValidationPolicy) {
	switch t.Kind {
	case KindDiscount:
		if t.Rate.GreaterThan(policy.DiscountWarnRate) {
			res.warn("Discount rate of %s%% is unusually high. Verify this is intentional.", t.Rate.String())
		}
	case KindInterest:
		if t.Rate.GreaterThan(policy.InterestWarnRate) {
			res.warn("Interest rate of %s%% is very high. Verify this is intentional.", t.Rate.String())
		}
	}
}

// ValidateSequence checks a same-kind tier list on its own: no negative or
// empty ranges and no pair of overlapping ranges.
func ValidateSequence(tiers []Tier) ValidationResult {
	res := newResult()
	if len(tiers) == 0 {
		return res.seal()
	}

	sorted := slices.Clone(tiers)
	slices.SortStableFunc(sorted, func(a, b Tier) int { return a.PeriodStart - b.PeriodStart })

	for i, t := range sorted {
		if t.PeriodStart < 0 {
			res.fail("Tier %d: Period start cannot be negative", i+1)
		}
		if t.End() < 0 {
			res.fail("Tier %d: Period end cannot be negative", i+1)
		}
		if t.End() <= t.PeriodStart {
			res.fail("Tier %d: Period end must be greater than period start", i+1)
		}
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.Overlaps(b) {
				res.fail("Overlap detected: Tier %q (%s) overlaps with Tier %q (%s)",
					displayName(a, i), a.PeriodLabel(), displayName(b, j), b.PeriodLabel())
			}
		}
	}

	return res.seal()
}

func displayName(t Tier, index int) string {
	if strings.TrimSpace(t.Name) != "" {
		return t.Name
	}
	return fmt.Sprint(index + 1)
}

func others(tiers []Tier, excludeID snowflake.ID) []Tier {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if !t.IsActive || (excludeID != 0 && t.ID == excludeID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func minStart(tiers []Tier) int {
	out := tiers[0].PeriodStart
	for _, t := range tiers[1:] {
		out = min(out, t.PeriodStart)
	}
	return out
}

func maxEnd(tiers []Tier) int {
	out := tiers[0].End()
	for _, t := range tiers[1:] {
		out = max(out, t.End())
	}
	return out
}
