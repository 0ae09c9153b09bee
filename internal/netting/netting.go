// Package netting implements single-side netting (§4.4): for CFFEX and
// SHFE futures legs, the smaller of the long/short side's margin is
// zeroed out, because the exchange only charges margin on the larger
// side. It also provides the per-scenario vectorized generalization
// (§4.4A) used by the stress engine.
package netting

import (
	"sort"

	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

// Apply returns a copy of legs with single-side netting applied: for
// CFFEX, across all future legs of the account; for SHFE, independently
// per variety. Legs from other exchanges, and option legs, pass through
// unchanged. Applying Apply twice is idempotent (§8 invariant 4): a
// second pass sees the already-zeroed side still on the losing side of
// the sum (0 contributes nothing), so the kept side is unchanged and
// nothing further is zeroed.
func Apply(legs []position.Leg) []position.Leg {
	out := make([]position.Leg, len(legs))
	copy(out, legs)

	cffexIdx := futureIndices(out, taxonomy.CFFEX, "")
	if len(cffexIdx) > 0 {
		nets(out, cffexIdx)
	}

	shfeVarieties := futureVarieties(out, taxonomy.SHFE)
	for _, variety := range shfeVarieties {
		idx := futureIndices(out, taxonomy.SHFE, variety)
		nets(out, idx)
	}

	return out
}

func futureIndices(legs []position.Leg, ex taxonomy.Exchange, variety string) []int {
	var idx []int
	for i, l := range legs {
		if l.Exchange != ex || l.Type != taxonomy.Future {
			continue
		}
		if variety != "" && l.Variety != variety {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func futureVarieties(legs []position.Leg, ex taxonomy.Exchange) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range legs {
		if l.Exchange == ex && l.Type == taxonomy.Future {
			if _, ok := seen[l.Variety]; !ok {
				seen[l.Variety] = struct{}{}
				out = append(out, l.Variety)
			}
		}
	}
	sort.Strings(out)
	return out
}

// nets zeroes the margin of every leg at idx whose side differs from
// whichever side has the larger summed TotalMargin. Ties favor "long"
// (the default largest-key winner named in §4.4).
func nets(legs []position.Leg, idx []int) {
	var longSum, shortSum float64
	for _, i := range idx {
		if legs[i].IsLong() {
			longSum += legs[i].TotalMargin
		} else {
			shortSum += legs[i].TotalMargin
		}
	}
	kept := taxonomy.Long
	if shortSum > longSum {
		kept = taxonomy.Short
	}
	for _, i := range idx {
		if legs[i].Side != kept {
			legs[i].Margin = 0
			legs[i].TotalMargin = 0
		}
	}
}
