// Package optimizer selects, per account, a set of two-leg combination
// strategies that maximizes total margin saving subject to leg-quantity
// capacity (§4.6). The MILP is solved by a depth-first branch-and-bound
// search rather than a general-purpose LP/MILP library (§4.6A): no
// library in the retrieved corpus solves integer-constrained linear
// programs, and the instance sizes this pipeline produces (at most a
// few dozen candidate strategies per account) make a direct search
// entirely adequate.
package optimizer

import (
	"sort"

	"github.com/contactkeval/marginrisk/internal/errs"
	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/strategy"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

// Instance is one enumerated candidate strategy: a specific pair of legs
// (by index into the account's leg slice) and the catalog match it
// produced.
type Instance struct {
	Leg1, Leg2 int
	Match      strategy.Match
}

// Selected is one output row for a chosen strategy (§4.6's output table).
type Selected struct {
	CodeDir1, CodeDir2 string
	Variant            strategy.Variant
	Quantity           int
	Margin             float64
}

// Residual is one output row for a leg's unconsumed capacity.
type Residual struct {
	CodeDir           string
	QuantityRemaining int
	Margin            float64
}

// Result is the optimizer's per-account output.
type Result struct {
	Selected []Selected
	Residual []Residual
}

// Enumerate returns every candidate strategy instance over legs: pairs
// (i, j), i<j, of legs sorted deterministically by CodeDir, for which
// the catalog dispatches a variant with positive margin_saving (§3's
// invariant that strategies with non-positive saving are never
// enumerated).
func Enumerate(legs []position.Leg, isClose bool) []Instance {
	order := make([]int, len(legs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return legs[order[a]].CodeDir < legs[order[b]].CodeDir })

	var out []Instance
	for a := 0; a < len(order); a++ {
		for b := a + 1; b < len(order); b++ {
			i, j := order[a], order[b]
			m, ok := strategy.Dispatch(legs[i], legs[j], isClose)
			if !ok || m.Saving() <= 0 {
				continue
			}
			out = append(out, Instance{Leg1: i, Leg2: j, Match: m})
		}
	}
	return out
}

// Optimize runs the per-account pipeline step of §4.6. It first
// partitions legs by exchange — mirroring the source material's
// `groupby(['exchange', 'account'])` dispatch, since one account
// routinely holds legs on more than one exchange: CFFEX and SHFE
// groups skip the MILP entirely (single-side netting is the
// optimization for those exchanges); every other exchange group runs
// the branch-and-bound search over Enumerate's candidates
// independently, and the per-group results are concatenated. legs must
// already have §4.4 netting applied. isClose gates AutoHedging's
// enumeration.
func Optimize(legs []position.Leg, isClose bool) (Result, error) {
	if len(legs) == 0 {
		return Result{}, nil
	}

	var order []taxonomy.Exchange
	groups := map[taxonomy.Exchange][]position.Leg{}
	for _, l := range legs {
		if _, ok := groups[l.Exchange]; !ok {
			order = append(order, l.Exchange)
		}
		groups[l.Exchange] = append(groups[l.Exchange], l)
	}

	var res Result
	for _, ex := range order {
		group := groups[ex]
		if ex == taxonomy.CFFEX || ex == taxonomy.SHFE {
			sub := skipOptimization(group)
			res.Selected = append(res.Selected, sub.Selected...)
			res.Residual = append(res.Residual, sub.Residual...)
			continue
		}

		instances := Enumerate(group, isClose)
		capacity := make([]int, len(group))
		for i, l := range group {
			capacity[i] = l.Quantity
		}

		counts, ok := solve(instances, capacity)
		if !ok {
			return Result{}, errs.ErrOptimizationFailed
		}
		sub := buildResult(group, instances, counts)
		res.Selected = append(res.Selected, sub.Selected...)
		res.Residual = append(res.Residual, sub.Residual...)
	}
	return res, nil
}

// skipOptimization produces the identity result: every leg is a
// residual row at full quantity, margin as already netted.
func skipOptimization(legs []position.Leg) Result {
	res := Result{Residual: make([]Residual, 0, len(legs))}
	for _, l := range legs {
		res.Residual = append(res.Residual, Residual{CodeDir: l.CodeDir, QuantityRemaining: l.Quantity, Margin: l.Margin})
	}
	return res
}

func buildResult(legs []position.Leg, instances []Instance, counts []int) Result {
	remaining := make([]int, len(legs))
	for i, l := range legs {
		remaining[i] = l.Quantity
	}

	res := Result{}
	for s, x := range counts {
		if x <= 0 {
			continue
		}
		inst := instances[s]
		remaining[inst.Leg1] -= x
		remaining[inst.Leg2] -= x
		res.Selected = append(res.Selected, Selected{
			CodeDir1: legs[inst.Leg1].CodeDir,
			CodeDir2: legs[inst.Leg2].CodeDir,
			Variant:  inst.Match.Variant,
			Quantity: x,
			Margin:   inst.Match.Margin,
		})
	}
	for i, l := range legs {
		res.Residual = append(res.Residual, Residual{CodeDir: l.CodeDir, QuantityRemaining: remaining[i], Margin: l.Margin})
	}
	return res
}
