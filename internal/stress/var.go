package stress

import (
	"sort"

	"github.com/contactkeval/marginrisk/internal/position"
	"gonum.org/v1/gonum/stat"
)

// DefaultPercentile is the default VaR percentile (§4.7).
const DefaultPercentile = 90.0

// AccountInput bundles one account's legs, starting equity, and any
// scheduled equity supplement per step, ahead of a VaR run.
type AccountInput struct {
	Account    string
	Legs       []position.Leg
	Equity     float64
	Supplement []float64 // per step, added cumulatively to equity; nil = none
}

// VaRResult is the per-step VaR output for one account.
type VaRResult struct {
	Account         string
	RiskRatioVaR    []float64 // per step, percentile of risk_ratio across paths
	ImmediateTopUp  float64   // max(sum(total_margin at t0) - equity, 0)
}

// RunVaR implements the VaR sub-engine of §4.7: generate correlated
// paths, revalue every leg, net per account, and take the percentile of
// the margin/equity risk ratio at each step across paths.
func RunVaR(acct AccountInput, cov CovarianceTable, mu map[string]float64, nStep, nPath int, percentile float64, seed *int64) (VaRResult, error) {
	paths, err := GeneratePaths(cov, mu, nStep, nPath, seed)
	if err != nil {
		return VaRResult{}, err
	}

	legMargins := make([][]float64, len(acct.Legs))
	legPnls := make([][]float64, len(acct.Legs))
	for i, l := range acct.Legs {
		flat := flattenShocks(paths, l.Udl)
		res := RevalueLeg(l, flat)
		legMargins[i] = res.TotalMargin
		legPnls[i] = res.Pnl
	}
	netMargin := NetAccountMargin(acct.Legs, legMargins)
	netPnl := SumPnl(legPnls)

	cellsPerStep := paths.NPath
	riskRatioVaR := make([]float64, nStep)
	cumSupplement := 0.0
	for s := 0; s < nStep; s++ {
		if acct.Supplement != nil {
			cumSupplement += acct.Supplement[s]
		}
		ratios := make([]float64, cellsPerStep)
		for p := 0; p < cellsPerStep; p++ {
			cell := s*cellsPerStep + p
			equity := acct.Equity + netPnl[cell] + cumSupplement
			ratios[p] = netMargin[cell] / equity
		}
		riskRatioVaR[s] = percentileOf(ratios, percentile)
	}

	immediateMargin := 0.0
	for _, l := range acct.Legs {
		immediateMargin += l.TotalMargin
	}
	topUp := immediateMargin - acct.Equity
	if topUp < 0 {
		topUp = 0
	}

	return VaRResult{Account: acct.Account, RiskRatioVaR: riskRatioVaR, ImmediateTopUp: topUp}, nil
}

// flattenShocks reads out the (step, path) shock values for a single
// underlying from a Paths cube, in step-major, path-minor order, so that
// cell index s*NPath+p addresses (step s, path p).
func flattenShocks(paths Paths, udl string) []float64 {
	u, ok := paths.UdlIndex[udl]
	out := make([]float64, paths.NStep*paths.NPath)
	if !ok {
		return out // unmapped udl: zero shock, leg revalues at its own close
	}
	for s := 0; s < paths.NStep; s++ {
		copy(out[s*paths.NPath:(s+1)*paths.NPath], paths.R[s][u])
	}
	return out
}

func percentileOf(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(p/100.0, stat.Empirical, sorted, nil)
}
