package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/contactkeval/marginrisk/internal/optimizer"
	"github.com/contactkeval/marginrisk/internal/strategy"
	"github.com/contactkeval/marginrisk/internal/stress"
	"github.com/contactkeval/marginrisk/internal/testutil"
)

func TestBuildHoldingRowsGolden(t *testing.T) {
	// S1.
	res := optimizer.Result{
		Selected: []optimizer.Selected{
			{CodeDir1: "M2401.DCE.L", CodeDir2: "M2405.DCE.S", Variant: strategy.CalendarSpread, Quantity: 2, Margin: 9000},
		},
		Residual: []optimizer.Residual{
			{CodeDir: "M2401.DCE.L", QuantityRemaining: 1, Margin: 8000},
			{CodeDir: "M2405.DCE.S", QuantityRemaining: 0, Margin: 9000},
		},
	}

	rows := BuildHoldingRows("acct1", "DCE", res)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	testutil.CompareWithGolden(t, "holding_rows", rows)

	outdir := t.TempDir()
	if err := WriteOptimizedHoldingCSV(rows, outdir); err != nil {
		t.Fatalf("writing CSV: %v", err)
	}
	csvBytes, err := os.ReadFile(filepath.Join(outdir, "optimized_holding.csv"))
	if err != nil {
		t.Fatalf("reading written CSV: %v", err)
	}
	testutil.CompareCSVWithGolden(t, "holding_rows", csvBytes)
}

func TestBuildScenarioPivotsWideShape(t *testing.T) {
	cellsByAccount := map[string][]stress.ScenarioCell{
		"acct1": {
			{Shock: -0.05, RiskRatio: 0.5, Supplement: 0},
			{Shock: 0.05, RiskRatio: 0.9, Supplement: 100},
		},
		"acct2": {
			{Shock: -0.05, RiskRatio: 0.3, Supplement: 0},
			{Shock: 0.05, RiskRatio: 0.7, Supplement: 50},
		},
	}

	riskRatio, supplement := BuildScenarioPivots([]string{"acct1", "acct2"}, cellsByAccount)

	if len(riskRatio.Grid) != 2 || riskRatio.Grid[0] != -0.05 || riskRatio.Grid[1] != 0.05 {
		t.Fatalf("unexpected risk-ratio grid: %+v", riskRatio.Grid)
	}
	if len(riskRatio.Rows) != 2 {
		t.Fatalf("expected one risk-ratio row per account, got %d", len(riskRatio.Rows))
	}
	if riskRatio.Rows[0].Account != "acct1" || riskRatio.Rows[0].Values[1] != 0.9 {
		t.Fatalf("unexpected risk-ratio row: %+v", riskRatio.Rows[0])
	}
	if riskRatio.Rows[1].Account != "acct2" || riskRatio.Rows[1].Values[0] != 0.3 {
		t.Fatalf("unexpected risk-ratio row: %+v", riskRatio.Rows[1])
	}

	if len(supplement.Grid) != 2 || supplement.Grid[1] != 0.05 {
		t.Fatalf("unexpected supplement grid: %+v", supplement.Grid)
	}
	if supplement.Rows[0].Values[1] != 100 || supplement.Rows[1].Values[1] != 50 {
		t.Fatalf("unexpected supplement rows: %+v", supplement.Rows)
	}
}
