package optimizer

import (
	"testing"

	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/strategy"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

func TestOptimizeDCECalendarSpread(t *testing.T) {
	// S1.
	legs := []position.Leg{
		{CodeDir: "M2401.DCE.L", Code: "M2401.DCE", Exchange: taxonomy.DCE, Type: taxonomy.Future, Variety: "M", Side: taxonomy.Long, Quantity: 3, Margin: 8000},
		{CodeDir: "M2405.DCE.S", Code: "M2405.DCE", Exchange: taxonomy.DCE, Type: taxonomy.Future, Variety: "M", Side: taxonomy.Short, Quantity: 2, Margin: 9000},
	}

	res, err := Optimize(legs, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Selected) != 1 {
		t.Fatalf("expected one selected strategy, got %d", len(res.Selected))
	}
	sel := res.Selected[0]
	if sel.Variant != strategy.CalendarSpread || sel.Quantity != 2 || sel.Margin != 9000 {
		t.Fatalf("unexpected selection: %+v", sel)
	}

	totalMargin := 0.0
	for _, r := range res.Residual {
		totalMargin += r.Margin * float64(r.QuantityRemaining)
	}
	for _, s := range res.Selected {
		totalMargin += s.Margin * float64(s.Quantity)
	}
	if totalMargin != 26000 {
		t.Fatalf("expected optimal total margin 26000, got %f", totalMargin)
	}

	// capacity invariant
	consumed := map[string]int{}
	for _, s := range res.Selected {
		consumed[s.CodeDir1] += s.Quantity
		consumed[s.CodeDir2] += s.Quantity
	}
	for _, l := range legs {
		if consumed[l.CodeDir] > l.Quantity {
			t.Fatalf("capacity violated for %s: consumed %d > quantity %d", l.CodeDir, consumed[l.CodeDir], l.Quantity)
		}
	}
}

func TestOptimizeSkipsCFFEXAndSHFE(t *testing.T) {
	legs := []position.Leg{
		{CodeDir: "IF2401.CFFEX.L", Exchange: taxonomy.CFFEX, Type: taxonomy.Future, Side: taxonomy.Long, Quantity: 2, Margin: 150000},
		{CodeDir: "IC2401.CFFEX.S", Exchange: taxonomy.CFFEX, Type: taxonomy.Future, Side: taxonomy.Short, Quantity: 1, Margin: 0},
		{CodeDir: "CU2401.SHFE.L", Code: "CU2401.SHFE", Exchange: taxonomy.SHFE, Type: taxonomy.Future, Variety: "CU", Side: taxonomy.Long, Quantity: 3, Margin: 30000},
		{CodeDir: "CU2405.SHFE.S", Code: "CU2405.SHFE", Exchange: taxonomy.SHFE, Type: taxonomy.Future, Variety: "CU", Side: taxonomy.Short, Quantity: 1, Margin: 0},
	}
	res, err := Optimize(legs, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Selected) != 0 {
		t.Fatalf("expected no MILP selection for CFFEX or SHFE, got %+v", res.Selected)
	}
	if len(res.Residual) != 4 {
		t.Fatalf("expected 4 residual rows, got %d", len(res.Residual))
	}
}

func TestOptimizeMixedExchangeAccount(t *testing.T) {
	// A single account with CFFEX legs (netting only, no MILP) and DCE
	// legs (the S1 calendar-spread instance) must treat each exchange's
	// legs independently, regardless of which leg lands at index 0.
	legs := []position.Leg{
		{CodeDir: "IF2401.CFFEX.L", Exchange: taxonomy.CFFEX, Type: taxonomy.Future, Side: taxonomy.Long, Quantity: 2, Margin: 150000},
		{CodeDir: "IC2401.CFFEX.S", Exchange: taxonomy.CFFEX, Type: taxonomy.Future, Side: taxonomy.Short, Quantity: 1, Margin: 0},
		{CodeDir: "M2401.DCE.L", Code: "M2401.DCE", Exchange: taxonomy.DCE, Type: taxonomy.Future, Variety: "M", Side: taxonomy.Long, Quantity: 3, Margin: 8000},
		{CodeDir: "M2405.DCE.S", Code: "M2405.DCE", Exchange: taxonomy.DCE, Type: taxonomy.Future, Variety: "M", Side: taxonomy.Short, Quantity: 2, Margin: 9000},
	}

	res, err := Optimize(legs, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Selected) != 1 {
		t.Fatalf("expected one selected strategy (DCE calendar spread), got %d: %+v", len(res.Selected), res.Selected)
	}
	sel := res.Selected[0]
	if sel.Variant != strategy.CalendarSpread || sel.Quantity != 2 || sel.Margin != 9000 {
		t.Fatalf("unexpected DCE selection: %+v", sel)
	}
	if len(res.Residual) != 4 {
		t.Fatalf("expected 4 residual rows (2 CFFEX untouched, 2 DCE consumed-to-1), got %d", len(res.Residual))
	}
	for _, r := range res.Residual {
		if (r.CodeDir == "IF2401.CFFEX.L" || r.CodeDir == "IC2401.CFFEX.S") && r.QuantityRemaining == 0 {
			t.Fatalf("CFFEX leg %s should not be consumed by the DCE MILP: %+v", r.CodeDir, r)
		}
	}
}
