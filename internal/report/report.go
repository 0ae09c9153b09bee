// Package report writes the four output tables (§6) as JSON and CSV,
// one writer per table per format, the same shape the reference
// codebase's WriteJSON/WriteCSV pair used for its own result tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contactkeval/marginrisk/internal/optimizer"
	"github.com/contactkeval/marginrisk/internal/stress"
)

// HoldingRow is one row of the optimized-holding table: one per residual
// leg and per selected strategy.
type HoldingRow struct {
	Exchange    string  `json:"exchange"`
	Account     string  `json:"account"`
	CodeDir     string  `json:"code_dir"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity"`
	Margin      float64 `json:"margin"`
	TotalMargin float64 `json:"total_margin"`
}

// BuildHoldingRows flattens an optimizer.Result into the report's rows.
func BuildHoldingRows(account string, exchange string, res optimizer.Result) []HoldingRow {
	var rows []HoldingRow
	for _, r := range res.Residual {
		rows = append(rows, HoldingRow{
			Exchange: exchange, Account: account, CodeDir: r.CodeDir, Type: "residual",
			Quantity: r.QuantityRemaining, Margin: r.Margin, TotalMargin: r.Margin * float64(r.QuantityRemaining),
		})
	}
	for _, s := range res.Selected {
		rows = append(rows, HoldingRow{
			Exchange: exchange, Account: account, CodeDir: fmt.Sprintf("%s+%s", s.CodeDir1, s.CodeDir2),
			Type: string(s.Variant), Quantity: s.Quantity, Margin: s.Margin, TotalMargin: s.Margin * float64(s.Quantity),
		})
	}
	return rows
}

func WriteOptimizedHoldingJSON(rows []HoldingRow, outdir string) error {
	return writeJSON(rows, outdir, "optimized_holding.json")
}

func WriteOptimizedHoldingCSV(rows []HoldingRow, outdir string) error {
	return writeCSV(outdir, "optimized_holding.csv",
		[]string{"exchange", "account", "code_dir", "type", "quantity", "margin", "total_margin"},
		len(rows),
		func(i int) []string {
			r := rows[i]
			return []string{
				r.Exchange, r.Account, r.CodeDir, r.Type,
				fmt.Sprintf("%d", r.Quantity), fmt.Sprintf("%.4f", r.Margin), fmt.Sprintf("%.4f", r.TotalMargin),
			}
		})
}

// VaRRow is one account's VaR report row: percentile risk ratio at each
// step plus the immediate top-up.
type VaRRow struct {
	Account        string    `json:"account"`
	RiskRatioVaR   []float64 `json:"risk_ratio_var"`
	ImmediateTopUp float64   `json:"immediate_top_up"`
}

func BuildVaRRows(results []stress.VaRResult) []VaRRow {
	rows := make([]VaRRow, len(results))
	for i, r := range results {
		rows[i] = VaRRow{Account: r.Account, RiskRatioVaR: r.RiskRatioVaR, ImmediateTopUp: r.ImmediateTopUp}
	}
	return rows
}

func WriteVaRReportJSON(rows []VaRRow, outdir string) error {
	return writeJSON(rows, outdir, "var_report.json")
}

func WriteVaRReportCSV(rows []VaRRow, outdir string) error {
	header := []string{"account"}
	if len(rows) > 0 {
		for i := range rows[0].RiskRatioVaR {
			header = append(header, fmt.Sprintf("T+%d", i))
		}
	}
	header = append(header, "immediate_top_up")
	return writeCSV(outdir, "var_report.csv", header, len(rows), func(i int) []string {
		r := rows[i]
		row := []string{r.Account}
		for _, v := range r.RiskRatioVaR {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		row = append(row, fmt.Sprintf("%.4f", r.ImmediateTopUp))
		return row
	})
}

// ScenarioPivotRow is one account's row in a wide account×shock matrix.
type ScenarioPivotRow struct {
	Account string    `json:"account"`
	Values  []float64 `json:"values"`
}

// ScenarioPivot is the wide account×shock table of §6B: one row per
// account, one column per entry of Grid, in the same order.
type ScenarioPivot struct {
	Grid []float64          `json:"r_grid"`
	Rows []ScenarioPivotRow `json:"rows"`
}

// BuildScenarioPivots pivots each account's scenario cells (assumed to
// share one shock grid, in grid order) into the risk-ratio and
// supplement wide tables — "scenario risk-ratio pivot" and "scenario
// supplement pivot" in §6B, indexed by account with one column per
// scenario r value.
func BuildScenarioPivots(accounts []string, cellsByAccount map[string][]stress.ScenarioCell) (riskRatio, supplement ScenarioPivot) {
	for _, account := range accounts {
		cells := cellsByAccount[account]
		if riskRatio.Grid == nil && len(cells) > 0 {
			grid := make([]float64, len(cells))
			for i, c := range cells {
				grid[i] = c.Shock
			}
			riskRatio.Grid = grid
			supplement.Grid = grid
		}
		rrValues := make([]float64, len(cells))
		supValues := make([]float64, len(cells))
		for i, c := range cells {
			rrValues[i] = c.RiskRatio
			supValues[i] = c.Supplement
		}
		riskRatio.Rows = append(riskRatio.Rows, ScenarioPivotRow{Account: account, Values: rrValues})
		supplement.Rows = append(supplement.Rows, ScenarioPivotRow{Account: account, Values: supValues})
	}
	return riskRatio, supplement
}

func WriteScenarioRiskRatioPivotJSON(p ScenarioPivot, outdir string) error {
	return writeJSON(p, outdir, "scenario_risk_ratio_pivot.json")
}

func WriteScenarioRiskRatioPivotCSV(p ScenarioPivot, outdir string) error {
	return writeScenarioPivotCSV(p, outdir, "scenario_risk_ratio_pivot.csv")
}

func WriteScenarioSupplementPivotJSON(p ScenarioPivot, outdir string) error {
	return writeJSON(p, outdir, "scenario_supplement_pivot.json")
}

func WriteScenarioSupplementPivotCSV(p ScenarioPivot, outdir string) error {
	return writeScenarioPivotCSV(p, outdir, "scenario_supplement_pivot.csv")
}

func writeScenarioPivotCSV(p ScenarioPivot, outdir, name string) error {
	header := []string{"account"}
	for _, r := range p.Grid {
		header = append(header, fmt.Sprintf("r=%.4f", r))
	}
	return writeCSV(outdir, name, header, len(p.Rows), func(i int) []string {
		row := p.Rows[i]
		out := make([]string, 0, len(row.Values)+1)
		out = append(out, row.Account)
		for _, v := range row.Values {
			out = append(out, fmt.Sprintf("%.6f", v))
		}
		return out
	})
}

func writeJSON(v any, outdir, name string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, name), b, 0644)
}

func writeCSV(outdir, name string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(filepath.Join(outdir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	return nil
}
