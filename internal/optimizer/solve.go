package optimizer

// solve finds non-negative integer counts x_s, one per instance, that
// maximize sum(x_s * saving(s)) subject to, for every leg l,
// sum_{s: l in s} x_s <= capacity[l]. x=0 is always feasible, so solve
// only fails (returns ok=false) if its own search has a bug; the caller
// surfaces that as ErrOptimizationFailed per §4.6.
func solve(instances []Instance, capacity []int) ([]int, bool) {
	n := len(instances)
	if n == 0 {
		return nil, true
	}

	remaining := make([]int, len(capacity))
	copy(remaining, capacity)

	best := make([]int, n)
	bestSaving := 0.0
	current := make([]int, n)

	var search func(idx int, currentSaving float64)
	search = func(idx int, currentSaving float64) {
		if idx == n {
			if currentSaving > bestSaving {
				bestSaving = currentSaving
				copy(best, current)
			}
			return
		}
		if currentSaving+upperBoundRest(instances, remaining, idx) <= bestSaving {
			return // pruned: even the generous relaxation can't beat the incumbent
		}

		inst := instances[idx]
		maxX := remaining[inst.Leg1]
		if remaining[inst.Leg2] < maxX {
			maxX = remaining[inst.Leg2]
		}
		if inst.Leg1 == inst.Leg2 {
			maxX = remaining[inst.Leg1] / 2
		}

		// Try the largest count first: it tends to find a strong
		// incumbent early, making later pruning more effective.
		for x := maxX; x >= 0; x-- {
			remaining[inst.Leg1] -= x
			remaining[inst.Leg2] -= x
			current[idx] = x
			search(idx+1, currentSaving+float64(x)*inst.Match.Saving())
			remaining[inst.Leg1] += x
			remaining[inst.Leg2] += x
		}
		current[idx] = 0
	}

	search(0, 0)
	return best, true
}

// upperBoundRest over-estimates the additional saving obtainable from
// instances[idx:], ignoring the fact that two instances can compete for
// the same leg's capacity. This relaxation is always >= the true
// optimum of the remaining subproblem, so it is a valid branch-and-bound
// bound.
func upperBoundRest(instances []Instance, remaining []int, idx int) float64 {
	bound := 0.0
	for i := idx; i < len(instances); i++ {
		inst := instances[i]
		if inst.Match.Saving() <= 0 {
			continue
		}
		maxX := remaining[inst.Leg1]
		if remaining[inst.Leg2] < maxX {
			maxX = remaining[inst.Leg2]
		}
		if maxX > 0 {
			bound += float64(maxX) * inst.Match.Saving()
		}
	}
	return bound
}
