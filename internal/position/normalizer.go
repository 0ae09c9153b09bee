package position

import (
	"fmt"

	"github.com/contactkeval/marginrisk/internal/errs"
	"github.com/contactkeval/marginrisk/internal/margin"
	"github.com/contactkeval/marginrisk/internal/netting"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

// MarketData bundles the four opaque market-data tables named in §6,
// each keyed by symbol. Commodity tables are expected to already have
// had contract_unit renamed to multiplier by the loader (§4.2 step 3).
type MarketData struct {
	StockFutures     map[string]FutureQuote
	CommodityFutures map[string]FutureQuote
	StockOptions     map[string]OptionQuote
	CommodityOptions map[string]OptionQuote
}

func (md MarketData) future(code string) (FutureQuote, bool) {
	if q, ok := md.StockFutures[code]; ok {
		return q, true
	}
	q, ok := md.CommodityFutures[code]
	return q, ok
}

func (md MarketData) option(code string) (OptionQuote, bool) {
	if q, ok := md.StockOptions[code]; ok {
		return q, true
	}
	q, ok := md.CommodityOptions[code]
	return q, ok
}

// Normalize implements §4.2: classify, split long/short, join market
// data, compute margin, then apply single-side netting per account.
// Row-level failures (InvalidCode, MissingMarketData, UnknownExchange)
// are collected rather than aborting the whole run; strict=true makes
// the first one abort instead.
func Normalize(raw []RawPosition, marginRatio map[string]float64, md MarketData, strict bool) ([]Leg, []error, error) {
	var legs []Leg
	var rowErrs []error

	for _, r := range raw {
		split, err := splitAndJoin(r, marginRatio, md)
		if err != nil {
			wrapped := &errs.RowError{Account: r.Account, Code: r.Code, Err: err}
			if strict {
				return nil, nil, wrapped
			}
			rowErrs = append(rowErrs, wrapped)
			continue
		}
		legs = append(legs, split...)
	}

	byAccount := map[string][]int{}
	for i, l := range legs {
		byAccount[l.Account] = append(byAccount[l.Account], i)
	}
	for _, idx := range byAccount {
		sub := make([]Leg, len(idx))
		for k, i := range idx {
			sub[k] = legs[i]
		}
		netted := netting.Apply(sub)
		for k, i := range idx {
			legs[i] = netted[k]
		}
	}

	return legs, rowErrs, nil
}

func splitAndJoin(r RawPosition, marginRatio map[string]float64, md MarketData) ([]Leg, error) {
	parsed, err := ParseCode(r.Code)
	if err != nil {
		return nil, err
	}
	if parsed.Type != taxonomy.Future && parsed.Type != taxonomy.Option {
		return nil, fmt.Errorf("%w: position type %s not supported", errs.ErrInvalidCode, parsed.Type)
	}

	var out []Leg
	if r.GrossLongQty > 0 {
		leg, err := buildLeg(r, parsed, marginRatio, md, taxonomy.Long, r.GrossLongQty)
		if err != nil {
			return nil, err
		}
		out = append(out, leg)
	}
	if r.GrossShortQty < 0 {
		leg, err := buildLeg(r, parsed, marginRatio, md, taxonomy.Short, -r.GrossShortQty)
		if err != nil {
			return nil, err
		}
		out = append(out, leg)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: both quantities zero", errs.ErrInvalidCode)
	}
	return out, nil
}

func buildLeg(r RawPosition, parsed ParsedCode, marginRatio map[string]float64, md MarketData, side taxonomy.LongShort, qty int) (Leg, error) {
	suffix := ".S"
	if side == taxonomy.Long {
		suffix = ".L"
	}

	leg := Leg{
		Account:  r.Account,
		Code:     r.Code,
		CodeDir:  r.Code + suffix,
		Side:     side,
		Quantity: qty,
		Exchange: parsed.Exchange,
		Type:     parsed.Type,
		Variety:  parsed.Variety,
	}

	ratio := marginRatio[parsed.Variety]

	switch parsed.Type {
	case taxonomy.Future:
		q, ok := md.future(r.Code)
		if !ok {
			return Leg{}, fmt.Errorf("%w: no future quote for %s", errs.ErrMissingMarketData, r.Code)
		}
		leg.Multiplier = q.Multiplier
		leg.ClosePrice = q.ClosePrice
		leg.LastTradeDate = q.LastTradeDate
		leg.Udl = parsed.Variety
		leg.MarginRatio = ratio
		leg.Margin = margin.Calc(margin.Input{
			Exchange: parsed.Exchange, Type: taxonomy.Future,
			ClosePrice: q.ClosePrice, Multiplier: q.Multiplier, MarginRatio: ratio,
		})

	case taxonomy.Option:
		q, ok := md.option(r.Code)
		if !ok {
			return Leg{}, fmt.Errorf("%w: no option quote for %s", errs.ErrMissingMarketData, r.Code)
		}
		leg.Multiplier = q.Multiplier
		leg.ClosePrice = q.ClosePrice
		leg.LastTradeDate = q.LastTradeDate
		leg.Udl = q.UnderlyingCode
		leg.UnderlyingPrice = q.UnderlyingPrice
		leg.StrikePrice = q.StrikePrice
		leg.CallPut = q.CallPut
		leg.Delta = q.Delta
		leg.Gamma = q.Gamma
		leg.MarginRatio = ratio
		leg.Margin = margin.Calc(margin.Input{
			Exchange: parsed.Exchange, Type: taxonomy.Option, Side: side, CallPut: q.CallPut,
			Multiplier: q.Multiplier, ClosePrice: q.ClosePrice, StrikePrice: q.StrikePrice,
			UnderlyingPx: q.UnderlyingPrice, MarginRatio: ratio,
		})
	}

	leg.TotalMargin = leg.Margin * float64(qty)
	return leg, nil
}
