package domain

import "fmt"

// SeparationReport describes the neutral zone between the last discount day
// and the first interest day of the persisted tier set.
type SeparationReport struct {
	Valid            bool     `json:"valid"`
	HasNeutralZone   bool     `json:"has_neutral_zone"`
	LastDiscountEnd  *int     `json:"last_discount_end,omitempty"`
	FirstInterestDay *int     `json:"first_interest_start,omitempty"`
	NeutralZoneStart *int     `json:"neutral_zone_start,omitempty"`
	NeutralZoneEnd   *int     `json:"neutral_zone_end,omitempty"`
	NeutralZoneDays  int      `json:"neutral_zone_days"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
}

// Separation compares the discount tier with the latest end against the
// interest tier with the earliest start. Either may be nil.
func Separation(lastDiscount, firstInterest *Tier) SeparationReport {
	report := SeparationReport{Errors: []string{}, Warnings: []string{}}

	switch {
	case lastDiscount == nil && firstInterest == nil:
		report.Warnings = append(report.Warnings, "No active discount or interest tiers configured")
	case firstInterest == nil:
		report.Warnings = append(report.Warnings, "Only discount tiers configured, no interest tiers")
	case lastDiscount == nil:
		report.Warnings = append(report.Warnings, "Only interest tiers configured, no discount tiers")
	default:
		lastDiscountEnd := lastDiscount.End()
		firstInterestStart := firstInterest.PeriodStart
		report.LastDiscountEnd = &lastDiscountEnd
		report.FirstInterestDay = &firstInterestStart

		if lastDiscountEnd >= firstInterestStart {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"CRITICAL: Discount periods must end BEFORE interest periods begin. "+
					"Last discount ends at day %d, but first interest starts at day %d. "+
					"There must be a neutral zone (e.g., 90-105 days with 0%% discount and 0%% interest).",
				lastDiscountEnd, firstInterestStart))
			break
		}

		gap := firstInterestStart - lastDiscountEnd - 1
		report.NeutralZoneDays = gap
		if gap < 1 {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"Very small neutral zone (%d day(s)) between discounts and interests. Consider increasing the gap for clarity.", gap))
			break
		}

		start, end := lastDiscountEnd+1, firstInterestStart-1
		report.HasNeutralZone = true
		report.NeutralZoneStart = &start
		report.NeutralZoneEnd = &end
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Neutral zone exists: Days %d to %d (%d days) have 0%% discount and 0%% interest.", start, end, gap))
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// TierSummary is the compact listing used by the status report.
type TierSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Period string `json:"period"`
	Rate   string `json:"rate"`
}

type TierGroupStatus struct {
	Count  int           `json:"count"`
	Tiers  []TierSummary `json:"tiers"`
	Valid  bool          `json:"valid"`
	Errors []string      `json:"errors"`
}

type SystemStatus struct {
	IsHealthy  bool             `json:"is_healthy"`
	Discount   TierGroupStatus  `json:"discount_tiers"`
	Interest   TierGroupStatus  `json:"interest_tiers"`
	Separation SeparationReport `json:"separation"`
	Errors     []string         `json:"errors"`
	Warnings   []string         `json:"warnings"`
}

// BuildSystemStatus combines the sequence checks of both kinds with the
// separation report. Tiers must be the active ones, sorted by period start.
func BuildSystemStatus(discounts, interests []Tier, separation SeparationReport) SystemStatus {
	discountCheck := ValidateSequence(discounts)
	interestCheck := ValidateSequence(interests)

	errs := make([]string, 0, len(discountCheck.Errors)+len(interestCheck.Errors)+len(separation.Errors))
	errs = append(errs, discountCheck.Errors...)
	errs = append(errs, interestCheck.Errors...)
	errs = append(errs, separation.Errors...)

	return SystemStatus{
		IsHealthy:  len(errs) == 0,
		Discount:   groupStatus(discounts, discountCheck),
		Interest:   groupStatus(interests, interestCheck),
		Separation: separation,
		Errors:     errs,
		Warnings:   append([]string{}, separation.Warnings...),
	}
}

func groupStatus(tiers []Tier, check ValidationResult) TierGroupStatus {
	summaries := make([]TierSummary, 0, len(tiers))
	for _, t := range tiers {
		summaries = append(summaries, TierSummary{
			ID:     t.ID.String(),
			Name:   t.Name,
			Period: t.PeriodLabel(),
			Rate:   t.Rate.String() + "%",
		})
	}
	return TierGroupStatus{
		Count:  len(tiers),
		Tiers:  summaries,
		Valid:  check.Valid,
		Errors: check.Errors,
	}
}
