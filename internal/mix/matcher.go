package mix

import "github.com/bernatvadell/muonline-sub002/internal/item"

// Match checks whether the candidate set satisfies the recipe. scratch must
// have one counter per candidate; it is reset before matching and holds the
// unconsumed counts afterwards. On success the returned statistics carry the
// set totals plus the slot dependent values.
func Match(r *Recipe, set *CandidateSet, scratch []int) (Stats, bool) {
	set.ResetScratch(scratch)

	st := set.Totals()
	st.OptionalSatisfied = true
	haveLevel1 := false

	for slot, src := range r.Slots() {
		matched := 0
		for i := range set.Items {
			if scratch[i] <= 0 || !src.Accepts(set.Items[i]) {
				continue
			}
			room := int(src.CountMax) - matched
			if room <= 0 {
				break
			}
			take := min(scratch[i], room)
			scratch[i] -= take
			matched += take
			if slot == 0 && !haveLevel1 {
				st.Level1 = set.Items[i].Level
				haveLevel1 = true
			}
		}
		if matched < int(src.CountMin) {
			return Stats{}, false
		}
		if matched == 0 {
			st.OptionalSatisfied = false
		}
	}

	for i := range set.Items {
		if scratch[i] > 0 && !leftoverAllowed(r, set.Items[i].Type) {
			return Stats{}, false
		}
	}
	return st, true
}

// leftoverAllowed reports whether an unconsumed item may ride along.
func leftoverAllowed(r *Recipe, t item.Type) bool {
	switch t {
	case item.CharmOfLuck:
		return r.CharmOption == OptionAllowed
	case item.ChaosCharm:
		return r.ChaosCharmOption == OptionAllowed
	}
	return false
}

// Similar reports whether any slot of the recipe accepts any candidate,
// ignoring counts.
func Similar(r *Recipe, set *CandidateSet) bool {
	for _, src := range r.Slots() {
		for i := range set.Items {
			if src.Accepts(set.Items[i]) {
				return true
			}
		}
	}
	return false
}
