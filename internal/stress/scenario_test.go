package stress

import (
	"math"
	"testing"

	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestRunScenarioFutureGrid(t *testing.T) {
	// S6.
	leg := position.Leg{
		Account: "acct1", CodeDir: "RB2401.DCE.L", Code: "RB2401.DCE",
		Exchange: taxonomy.DCE, Type: taxonomy.Future, Variety: "RB",
		Side: taxonomy.Long, Quantity: 1, Udl: "RB",
		ClosePrice: 4000, Multiplier: 10, MarginRatio: 0.08,
	}
	leg.Margin = 4000 * 10 * 0.08
	leg.TotalMargin = leg.Margin

	acct := AccountInput{Account: "acct1", Legs: []position.Leg{leg}, Equity: 100000}
	grid := []float64{-0.05, -0.03, 0, 0.03, 0.05}
	cells := RunScenario(acct, grid, DefaultTargetRiskRatio)

	if len(cells) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(cells))
	}
	c := cells[0] // r = -0.05
	wantPrice := 3800.0
	wantPnl := (wantPrice - 4000.0) * 10
	wantMargin := wantPrice * 10 * 0.08
	wantEquity := 100000.0 + wantPnl
	wantRatio := wantMargin / wantEquity
	wantSupplement := math.Max(wantMargin/0.95-wantEquity, 0)

	if !almostEqual(c.RiskRatio, wantRatio) {
		t.Fatalf("expected risk ratio %f, got %f", wantRatio, c.RiskRatio)
	}
	if !almostEqual(c.Supplement, wantSupplement) {
		t.Fatalf("expected supplement %f, got %f", wantSupplement, c.Supplement)
	}
}

func TestRunScenarioDefaultGridWhenNil(t *testing.T) {
	leg := position.Leg{
		Account: "acct1", CodeDir: "RB2401.DCE.L", Exchange: taxonomy.DCE,
		Type: taxonomy.Future, Side: taxonomy.Long, Quantity: 1, Udl: "RB",
		ClosePrice: 4000, Multiplier: 10, MarginRatio: 0.08,
	}
	acct := AccountInput{Account: "acct1", Legs: []position.Leg{leg}, Equity: 100000}
	cells := RunScenario(acct, nil, DefaultTargetRiskRatio)
	if len(cells) != len(DefaultShockGrid) {
		t.Fatalf("expected default grid length %d, got %d", len(DefaultShockGrid), len(cells))
	}
}
