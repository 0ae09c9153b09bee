// Package margin implements the exchange-specific single-leg margin
// formulas for futures and short options (§4.3), scalar and vectorized.
package margin

import (
	"math"

	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

// Input is the stable, enumerated set of fields the margin formulas
// depend on. It is deliberately narrower than position.Leg so callers in
// the stress engine can shock close/udl prices without threading the
// rest of a Leg's bookkeeping fields through.
type Input struct {
	Exchange      taxonomy.Exchange
	Type          taxonomy.PositionType
	Side          taxonomy.LongShort
	CallPut       taxonomy.CallPut
	Multiplier    float64
	ClosePrice    float64
	StrikePrice   float64
	UnderlyingPx  float64
	MarginRatio   float64 // margin_ratio[variety]
}

// Calc returns the per-unit margin for a single leg per §4.3.
func Calc(in Input) float64 {
	if in.Type == taxonomy.Future {
		return futureMargin(in.ClosePrice, in.Multiplier, in.MarginRatio)
	}
	if in.Side == taxonomy.Long {
		return 0
	}
	return shortOptionMargin(in)
}

func futureMargin(close, multiplier, ratio float64) float64 {
	return close * multiplier * ratio
}

func otm(cp taxonomy.CallPut, strike, udl float64) float64 {
	if cp == taxonomy.Call {
		return math.Max(strike-udl, 0)
	}
	return math.Max(udl-strike, 0)
}

// minSafetyFactor is the CFFEX index-option minimum safety factor k.
const minSafetyFactor = 0.5

func shortOptionMargin(in Input) float64 {
	o := otm(in.CallPut, in.StrikePrice, in.UnderlyingPx)
	switch {
	case in.Exchange == taxonomy.SSE || in.Exchange == taxonomy.SZSE:
		if in.CallPut == taxonomy.Call {
			return in.Multiplier * (in.ClosePrice + math.Max(0.12*in.UnderlyingPx-o, 0.07*in.UnderlyingPx))
		}
		return in.Multiplier * math.Min(in.ClosePrice+math.Max(0.12*in.UnderlyingPx-o, 0.07*in.StrikePrice), in.StrikePrice)

	case in.Exchange == taxonomy.CFFEX:
		r := in.MarginRatio
		if in.CallPut == taxonomy.Call {
			return in.Multiplier * (in.ClosePrice + math.Max(in.UnderlyingPx*r-o, minSafetyFactor*in.UnderlyingPx*r))
		}
		return in.Multiplier * (in.ClosePrice + math.Max(in.UnderlyingPx*r-o, minSafetyFactor*in.StrikePrice*r))

	default: // SHFE, CZCE, DCE, GFEX
		udlMargin := in.UnderlyingPx * in.MarginRatio
		return in.Multiplier * (in.ClosePrice + udlMargin - 0.5*math.Min(o, udlMargin))
	}
}

// CalcFutureVec returns the per-unit margin of a future leg for each
// shocked close price in closes, used by the stress engine.
func CalcFutureVec(in Input, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = futureMargin(c, in.Multiplier, in.MarginRatio)
	}
	return out
}

// CalcOptionVec returns the per-unit margin of a (short) option leg for
// each shocked (underlying, close) pair in udls/closes, used by the
// stress engine. Long options are always zero. udls and closes must have
// equal length.
func CalcOptionVec(in Input, udls, closes []float64) []float64 {
	out := make([]float64, len(udls))
	if in.Side == taxonomy.Long {
		return out // all zero
	}
	for i := range udls {
		shocked := in
		shocked.UnderlyingPx = udls[i]
		shocked.ClosePrice = closes[i]
		out[i] = shortOptionMargin(shocked)
	}
	return out
}
