package stress

// DefaultTargetRiskRatio is the target margin/equity ratio used to size
// a supplement recommendation (§4.7).
const DefaultTargetRiskRatio = 0.95

// DefaultShockGrid is the fixed single-step parallel-shift grid used when
// the caller passes no grid.
var DefaultShockGrid = []float64{-0.10, -0.05, -0.03, -0.01, 0, 0.01, 0.03, 0.05, 0.10}

// ScenarioCell is one (shock, account) result row.
type ScenarioCell struct {
	Shock      float64
	RiskRatio  float64
	Supplement float64 // recommended top-up to reach target risk ratio, >= 0
}

// RunScenario implements the scenario sub-engine of §4.7: every leg's
// own underlying is shocked by the same grid value in parallel (no
// correlation sampling), margin is netted per account, and a supplement
// is sized to bring the risk ratio back down to target.
func RunScenario(acct AccountInput, grid []float64, targetRiskRatio float64) []ScenarioCell {
	if grid == nil {
		grid = DefaultShockGrid
	}
	cells := make([]ScenarioCell, len(grid))

	legMargins := make([][]float64, len(acct.Legs))
	legPnls := make([][]float64, len(acct.Legs))
	for i, l := range acct.Legs {
		shocks := make([]float64, len(grid))
		copy(shocks, grid)
		res := RevalueLeg(l, shocks)
		legMargins[i] = res.TotalMargin
		legPnls[i] = res.Pnl
	}
	netMargin := NetAccountMargin(acct.Legs, legMargins)
	netPnl := SumPnl(legPnls)

	for i, shock := range grid {
		equity := acct.Equity + netPnl[i]
		riskRatio := netMargin[i] / equity
		supplement := netMargin[i]/targetRiskRatio - equity
		if supplement < 0 {
			supplement = 0
		}
		cells[i] = ScenarioCell{Shock: shock, RiskRatio: riskRatio, Supplement: supplement}
	}
	return cells
}
