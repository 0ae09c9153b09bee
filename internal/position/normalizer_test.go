package position

import (
	"testing"
	"time"

	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

func TestNormalizeSplitsLongShortAndComputesMargin(t *testing.T) {
	raw := []RawPosition{
		{Account: "acct1", Code: "M2401.DCE", GrossLongQty: 3, GrossShortQty: 0},
		{Account: "acct1", Code: "M2405.DCE", GrossLongQty: 0, GrossShortQty: -2},
	}
	md := MarketData{
		CommodityFutures: map[string]FutureQuote{
			"M2401.DCE": {Code: "M2401.DCE", Multiplier: 10, ClosePrice: 2600, LastTradeDate: time.Now()},
			"M2405.DCE": {Code: "M2405.DCE", Multiplier: 10, ClosePrice: 2700, LastTradeDate: time.Now()},
		},
	}
	ratios := map[string]float64{"M": 0.08}

	legs, rowErrs, err := Normalize(raw, ratios, md, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}

	for _, l := range legs {
		if l.Quantity <= 0 {
			t.Fatalf("leg %s has non-positive quantity %d", l.CodeDir, l.Quantity)
		}
		if l.TotalMargin < 0 {
			t.Fatalf("leg %s has negative total margin", l.CodeDir)
		}
	}

	long := legs[0]
	if long.CodeDir != "M2401.DCE.L" || long.Side != taxonomy.Long || long.Quantity != 3 {
		t.Fatalf("unexpected long leg: %+v", long)
	}
	wantMargin := 2600.0 * 10 * 0.08
	if long.Margin != wantMargin {
		t.Fatalf("expected margin %f, got %f", wantMargin, long.Margin)
	}
}

func TestNormalizeMissingMarketDataRowSkip(t *testing.T) {
	raw := []RawPosition{
		{Account: "acct1", Code: "M2401.DCE", GrossLongQty: 3, GrossShortQty: 0},
	}
	_, rowErrs, err := Normalize(raw, map[string]float64{"M": 0.08}, MarketData{}, false)
	if err != nil {
		t.Fatalf("unexpected abort error: %v", err)
	}
	if len(rowErrs) != 1 {
		t.Fatalf("expected one row error, got %d", len(rowErrs))
	}
}

func TestNormalizeStrictModeAborts(t *testing.T) {
	raw := []RawPosition{
		{Account: "acct1", Code: "M2401.DCE", GrossLongQty: 3, GrossShortQty: 0},
	}
	_, _, err := Normalize(raw, map[string]float64{"M": 0.08}, MarketData{}, true)
	if err == nil {
		t.Fatalf("expected strict-mode abort error")
	}
}

func TestNormalizeAppliesCFFEXNetting(t *testing.T) {
	now := time.Now()
	raw := []RawPosition{
		{Account: "acctA", Code: "IF2401.CFFEX", GrossLongQty: 2, GrossShortQty: 0},
		{Account: "acctA", Code: "IC2401.CFFEX", GrossLongQty: 0, GrossShortQty: -1},
	}
	md := MarketData{
		StockFutures: map[string]FutureQuote{
			"IF2401.CFFEX": {Multiplier: 300, ClosePrice: 3800, LastTradeDate: now},
			"IC2401.CFFEX": {Multiplier: 200, ClosePrice: 5500, LastTradeDate: now},
		},
	}
	ratios := map[string]float64{"IF": 0.13, "IC": 0.16}
	legs, _, err := Normalize(raw, ratios, md, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var longTotal, shortTotal float64
	for _, l := range legs {
		if l.Side == taxonomy.Long {
			longTotal = l.TotalMargin
		} else {
			shortTotal = l.TotalMargin
		}
	}
	if longTotal <= 0 {
		t.Fatalf("expected kept long side to retain margin, got %f", longTotal)
	}
	if shortTotal != 0 {
		t.Fatalf("expected netted short side to be zeroed, got %f", shortTotal)
	}
}
