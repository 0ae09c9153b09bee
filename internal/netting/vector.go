package netting

import (
	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

// NetTotalMargin aggregates total margin across legs subject to §4.4
// netting applied per scenario cell (§4.4A). margins[i] is leg i's total
// margin (per-unit margin times quantity) for every scenario cell, all of
// identical length; the returned slice has that same length. For CFFEX
// the correction is computed across all future legs; for SHFE
// independently per variety and summed. Non-netted exchanges simply
// contribute their margin with no correction.
func NetTotalMargin(legs []position.Leg, margins [][]float64) []float64 {
	n := 0
	if len(margins) > 0 {
		n = len(margins[0])
	}
	total := make([]float64, n)
	for _, m := range margins {
		addInto(total, m)
	}

	total = subtract(total, smallerSideSum(legs, margins, taxonomy.CFFEX, ""))
	for _, variety := range futureVarieties(legs, taxonomy.SHFE) {
		total = subtract(total, smallerSideSum(legs, margins, taxonomy.SHFE, variety))
	}
	return total
}

// smallerSideSum returns, cell-wise, min(longSum, shortSum) over the
// future legs of ex (optionally restricted to variety).
func smallerSideSum(legs []position.Leg, margins [][]float64, ex taxonomy.Exchange, variety string) []float64 {
	idx := futureIndices(legs, ex, variety)
	if len(idx) == 0 {
		return nil
	}
	n := len(margins[idx[0]])
	longSum := make([]float64, n)
	shortSum := make([]float64, n)
	for _, i := range idx {
		if legs[i].IsLong() {
			addInto(longSum, margins[i])
		} else {
			addInto(shortSum, margins[i])
		}
	}
	out := make([]float64, n)
	for i := range out {
		if longSum[i] < shortSum[i] {
			out[i] = longSum[i]
		} else {
			out[i] = shortSum[i]
		}
	}
	return out
}

func addInto(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}

func subtract(total, correction []float64) []float64 {
	if correction == nil {
		return total
	}
	for i := range total {
		total[i] -= correction[i]
	}
	return total
}
