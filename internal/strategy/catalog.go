// Package strategy is the combination-strategy catalog (§4.5): the
// closed set of sixteen admissible two-leg variants across three
// families, each with a normalization swap, a validity predicate, and a
// combined-margin formula. Modeled as a tagged sum over variant values
// plus a dispatcher, per the recommendation in the Design Notes, rather
// than as a class hierarchy.
package strategy

import (
	"math"

	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

const epsilon = 1e-6

// Variant names the sixteen catalog entries.
type Variant string

const (
	FutureLockPosition   Variant = "FutureLockPosition"
	CalendarSpread       Variant = "CalendarSpread"
	InterCommoditySpread Variant = "InterCommoditySpread"

	BullCallSpread     Variant = "BullCallSpread"
	BearCallSpread     Variant = "BearCallSpread"
	BullPutSpread      Variant = "BullPutSpread"
	BearPutSpread      Variant = "BearPutSpread"
	Straddle           Variant = "Straddle"
	Strangle           Variant = "Strangle"
	OptionLockPosition Variant = "OptionLockPosition"
	AutoHedging        Variant = "AutoHedging"

	CoveredCall     Variant = "CoveredCall"
	CoveredPut      Variant = "CoveredPut"
	ProtectiveCall  Variant = "ProtectiveCall"
	ProtectivePut   Variant = "ProtectivePut"
)

// AutoHedgingPenalty is subtracted from margin_saving when AutoHedging is
// selected, to de-prioritize this degenerate combination (§4.5).
const AutoHedgingPenalty = 10.0

// Match is the result of a successful catalog dispatch: the normalized
// pair (in catalog order pos1, pos2) plus the matched variant and its
// combined margin.
type Match struct {
	Pos1, Pos2 position.Leg
	Variant    Variant
	Margin     float64
}

// Saving is pos1.margin + pos2.margin - combined margin, with the
// AutoHedging penalty applied when relevant (§4.5).
func (m Match) Saving() float64 {
	saving := m.Pos1.Margin + m.Pos2.Margin - m.Margin
	if m.Variant == AutoHedging {
		saving -= AutoHedgingPenalty
	}
	return saving
}

// family is one of the three dispatch groups, keyed by (type, type).
type family int

const (
	familyNone family = iota
	familyFutures
	familyOptions
	familyFutureOption
)

func classify(a, b position.Leg) family {
	switch {
	case a.Type == taxonomy.Future && b.Type == taxonomy.Future:
		return familyFutures
	case a.Type == taxonomy.Option && b.Type == taxonomy.Option:
		return familyOptions
	case (a.Type == taxonomy.Future && b.Type == taxonomy.Option) ||
		(a.Type == taxonomy.Option && b.Type == taxonomy.Future):
		return familyFutureOption
	default:
		return familyNone
	}
}

// isClose is an out-of-band flag (closing-session context) required by
// AutoHedging's predicate; it is supplied by the caller, not derived from
// leg data.
//
// Dispatch matches the unordered pair (a, b) against the catalog: it
// normalizes the pair per the family's swap rule, then returns the first
// variant (in catalog declaration order) whose predicate holds. At most
// one variant ever matches for a given normalized pair (§8 invariant 5),
// because the predicates within a family are mutually exclusive by
// construction (opposite inequality directions, disjoint side/right
// combinations).
func Dispatch(a, b position.Leg, isClose bool) (Match, bool) {
	switch classify(a, b) {
	case familyFutures:
		return dispatchFutures(a, b)
	case familyOptions:
		return dispatchOptions(normalizeOptions(a, b), isClose)
	case familyFutureOption:
		return dispatchFutureOption(normalizeFutureOption(a, b))
	default:
		return Match{}, false
	}
}

// --- Futures family: normalization is identity. ---

func dispatchFutures(a, b position.Leg) (Match, bool) {
	if a.Side == b.Side {
		return Match{}, false
	}
	switch {
	case a.Code == b.Code && isIn(a.Exchange, taxonomy.CZCE, taxonomy.DCE, taxonomy.GFEX):
		return Match{a, b, FutureLockPosition, math.Max(a.Margin, b.Margin)}, true
	case a.Variety == b.Variety && a.Code != b.Code && isIn(a.Exchange, taxonomy.CZCE, taxonomy.DCE, taxonomy.GFEX):
		return Match{a, b, CalendarSpread, math.Max(a.Margin, b.Margin)}, true
	case taxonomy.IsCommodityPair(a.Exchange, a.Variety, b.Variety) && isIn(a.Exchange, taxonomy.CZCE, taxonomy.DCE):
		return Match{a, b, InterCommoditySpread, math.Max(a.Margin, b.Margin)}, true
	}
	return Match{}, false
}

// --- Options family. ---

// normalizeOptions applies: if exactly one leg is short, place it at
// pos2; if both are short and one is call / one is put, place the put
// at pos1 and the call at pos2.
func normalizeOptions(a, b position.Leg) (pos1, pos2 position.Leg) {
	aShort, bShort := a.Side == taxonomy.Short, b.Side == taxonomy.Short
	switch {
	case aShort && !bShort:
		return b, a
	case !aShort && bShort:
		return a, b
	case aShort && bShort:
		if a.CallPut == taxonomy.Call && b.CallPut == taxonomy.Put {
			return b, a
		}
		return a, b
	default:
		return a, b
	}
}

func dispatchOptions(pos1, pos2 position.Leg, isClose bool) (Match, bool) {
	sameUdlExpiry := pos1.Udl == pos2.Udl && pos1.LastTradeDate.Equal(pos2.LastTradeDate)
	if !sameUdlExpiry {
		return Match{}, false
	}
	oppositeSides := pos1.Side != pos2.Side
	k1k2 := pos1.StrikePrice - pos2.StrikePrice

	switch {
	case oppositeSides && pos1.CallPut == taxonomy.Call && pos2.CallPut == taxonomy.Call && k1k2 < -epsilon &&
		isIn(pos1.Exchange, taxonomy.SSE, taxonomy.SZSE, taxonomy.DCE, taxonomy.GFEX):
		m := 0.0
		if pos1.Exchange.IsCommodity() {
			m = pos2.Margin * 0.2
		}
		return Match{pos1, pos2, BullCallSpread, m}, true

	case oppositeSides && pos1.CallPut == taxonomy.Call && pos2.CallPut == taxonomy.Call && k1k2 > epsilon:
		return Match{pos1, pos2, BearCallSpread, k1k2 * pos1.Multiplier}, true

	case oppositeSides && pos1.CallPut == taxonomy.Put && pos2.CallPut == taxonomy.Put && k1k2 < -epsilon:
		return Match{pos1, pos2, BullPutSpread, (-k1k2) * pos2.Multiplier}, true

	case oppositeSides && pos1.CallPut == taxonomy.Put && pos2.CallPut == taxonomy.Put && k1k2 > epsilon &&
		isIn(pos1.Exchange, taxonomy.SSE, taxonomy.SZSE, taxonomy.DCE, taxonomy.GFEX):
		m := 0.0
		if pos1.Exchange.IsCommodity() {
			m = pos2.Margin * 0.2
		}
		return Match{pos1, pos2, BearPutSpread, m}, true

	case pos1.Side == taxonomy.Short && pos2.Side == taxonomy.Short && pos1.CallPut != pos2.CallPut &&
		math.Abs(k1k2) < epsilon && isIn(pos1.Exchange, taxonomy.SSE, taxonomy.SZSE, taxonomy.CZCE, taxonomy.DCE, taxonomy.GFEX):
		return Match{pos1, pos2, Straddle, straddleMargin(pos1, pos2)}, true

	case pos1.Side == taxonomy.Short && pos2.Side == taxonomy.Short && pos1.CallPut != pos2.CallPut && k1k2 < -epsilon:
		return Match{pos1, pos2, Strangle, straddleMargin(pos1, pos2)}, true

	case pos1.Code == pos2.Code && oppositeSides && isIn(pos1.Exchange, taxonomy.DCE, taxonomy.GFEX):
		return Match{pos1, pos2, OptionLockPosition, pos2.Margin * 0.2}, true

	case pos1.Code == pos2.Code && oppositeSides && isIn(pos1.Exchange, taxonomy.SSE, taxonomy.SZSE) && isClose:
		return Match{pos1, pos2, AutoHedging, 0}, true
	}
	return Match{}, false
}

// straddleMargin: let pos_high be the leg with the larger margin (ties
// broken by larger close_price); margin = pos_high.margin +
// pos_low.close_price * pos_low.multiplier.
func straddleMargin(pos1, pos2 position.Leg) float64 {
	high, low := pos1, pos2
	swap := pos2.Margin > pos1.Margin || (pos2.Margin == pos1.Margin && pos2.ClosePrice > pos1.ClosePrice)
	if swap {
		high, low = pos2, pos1
	}
	return high.Margin + low.ClosePrice*low.Multiplier
}

// --- Future-Option family. ---

// normalizeFutureOption places the future at pos1, the option at pos2.
func normalizeFutureOption(a, b position.Leg) (pos1, pos2 position.Leg) {
	if a.Type == taxonomy.Option {
		return b, a
	}
	return a, b
}

func dispatchFutureOption(pos1, pos2 position.Leg) (Match, bool) {
	if pos1.Code != pos2.Udl {
		return Match{}, false
	}
	switch {
	case pos1.Side == taxonomy.Long && pos2.Side == taxonomy.Short && pos2.CallPut == taxonomy.Call &&
		isIn(pos1.Exchange, taxonomy.DCE, taxonomy.GFEX):
		return Match{pos1, pos2, CoveredCall, pos1.Margin + pos2.ClosePrice*pos2.Multiplier}, true

	case pos1.Side == taxonomy.Short && pos2.Side == taxonomy.Short && pos2.CallPut == taxonomy.Put &&
		isIn(pos1.Exchange, taxonomy.DCE, taxonomy.GFEX):
		return Match{pos1, pos2, CoveredPut, pos1.Margin + pos2.ClosePrice*pos2.Multiplier}, true

	case pos1.Side == taxonomy.Short && pos2.Side == taxonomy.Long && pos2.CallPut == taxonomy.Call &&
		pos1.Exchange == taxonomy.DCE:
		return Match{pos1, pos2, ProtectiveCall, pos1.Margin * 0.8}, true

	case pos1.Side == taxonomy.Long && pos2.Side == taxonomy.Long && pos2.CallPut == taxonomy.Put &&
		pos1.Exchange == taxonomy.DCE:
		return Match{pos1, pos2, ProtectivePut, pos1.Margin * 0.8}, true
	}
	return Match{}, false
}

func isIn(ex taxonomy.Exchange, set ...taxonomy.Exchange) bool {
	for _, s := range set {
		if ex == s {
			return true
		}
	}
	return false
}
