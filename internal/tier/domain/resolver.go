package domain

// Resolve returns the active tier of kind covering days, or nil. When several
// tiers match, discount prefers the highest rate and interest the lowest, so
// an overlapping configuration always resolves in the vendor's favour.
// Remaining ties go to the earliest start, then the lowest id.
func Resolve(tiers []Tier, kind Kind, days int) *Tier {
	if days < 0 {
		return nil
	}

	var best *Tier
	for i := range tiers {
		t := &tiers[i]
		if t.Kind != kind || !t.IsActive || !t.Covers(days) {
			continue
		}
		if best == nil || preferred(kind, t, best) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func preferred(kind Kind, candidate, current *Tier) bool {
	if cmp := candidate.Rate.Cmp(current.Rate); cmp != 0 {
		if kind == KindDiscount {
			return cmp > 0
		}
		return cmp < 0
	}
	if candidate.PeriodStart != current.PeriodStart {
		return candidate.PeriodStart < current.PeriodStart
	}
	return candidate.ID < current.ID
}
