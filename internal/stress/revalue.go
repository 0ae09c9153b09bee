package stress

import (
	"github.com/contactkeval/marginrisk/internal/margin"
	"github.com/contactkeval/marginrisk/internal/netting"
	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

// LegResult is one leg's revaluation across every scenario cell of a
// flattened (step, path) or (scenario) grid, flattened row-major.
type LegResult struct {
	Pnl         []float64
	TotalMargin []float64
}

// RevalueLeg implements the per-leg revaluation of §4.7 for a single
// leg under a shock array r (one value per scenario cell, already
// flattened). Futures use price = close*(1+r); options use the
// delta-gamma approximation.
func RevalueLeg(l position.Leg, r []float64) LegResult {
	n := len(r)
	pnl := make([]float64, n)
	unitMargin := make([]float64, n)
	qtyDir := l.QtyDir()

	switch l.Type {
	case taxonomy.Future:
		closes := make([]float64, n)
		for i, ri := range r {
			price := l.ClosePrice * (1 + ri)
			closes[i] = price
			pnl[i] = (price - l.ClosePrice) * qtyDir
		}
		unitMargin = margin.CalcFutureVec(legFutureInput(l), closes)

	case taxonomy.Option:
		udls := make([]float64, n)
		closes := make([]float64, n)
		for i, ri := range r {
			s := l.UnderlyingPrice * (1 + ri)
			ds := s - l.UnderlyingPrice
			price := l.ClosePrice + ds*l.Delta + 0.5*ds*ds*l.Gamma
			udls[i] = s
			closes[i] = price
			pnl[i] = (price - l.ClosePrice) * qtyDir
		}
		unitMargin = margin.CalcOptionVec(legOptionInput(l), udls, closes)
	}

	total := make([]float64, n)
	for i := range total {
		total[i] = unitMargin[i] * float64(l.Quantity)
	}
	return LegResult{Pnl: pnl, TotalMargin: total}
}

func legFutureInput(l position.Leg) margin.Input {
	return margin.Input{Exchange: l.Exchange, Type: taxonomy.Future, Multiplier: l.Multiplier, MarginRatio: l.MarginRatio}
}

func legOptionInput(l position.Leg) margin.Input {
	return margin.Input{
		Exchange: l.Exchange, Type: taxonomy.Option, Side: l.Side, CallPut: l.CallPut,
		Multiplier: l.Multiplier, StrikePrice: l.StrikePrice, MarginRatio: l.MarginRatio,
	}
}

// NetAccountMargin sums per-leg total-margin arrays into a single
// per-account array, applying §4.4A netting for CFFEX/SHFE.
func NetAccountMargin(legs []position.Leg, legMargins [][]float64) []float64 {
	return netting.NetTotalMargin(legs, legMargins)
}

// SumPnl sums per-leg P&L arrays into a per-account array.
func SumPnl(legPnls [][]float64) []float64 {
	if len(legPnls) == 0 {
		return nil
	}
	out := make([]float64, len(legPnls[0]))
	for _, p := range legPnls {
		for i, v := range p {
			out[i] += v
		}
	}
	return out
}
