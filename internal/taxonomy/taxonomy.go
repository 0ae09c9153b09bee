// Package taxonomy defines the closed enumerations that classify a
// position: exchange, position type, and variety, plus the alias
// normalization and inter-commodity pairing tables that the rest of
// the pipeline keys off of.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/contactkeval/marginrisk/internal/errs"
)

// Exchange is a closed enumeration of the Chinese futures/options exchanges
// this system understands.
type Exchange string

const (
	CFFEX Exchange = "CFFEX"
	SSE    Exchange = "SSE"
	SZSE   Exchange = "SZSE"
	SHFE   Exchange = "SHFE"
	CZCE   Exchange = "CZCE"
	DCE    Exchange = "DCE"
	GFEX   Exchange = "GFEX"
)

// aliases maps every broker-feed spelling we've seen onto the canonical
// Exchange value. Unknown aliases are rejected with ErrUnknownExchange.
var aliases = map[string]Exchange{
	"CFE":   CFFEX,
	"CCFX":  CFFEX,
	"CFFEX": CFFEX,
	"SH":    SSE,
	"SSE":   SSE,
	"SZ":    SZSE,
	"SZSE":  SZSE,
	"SHF":   SHFE,
	"SHFE":  SHFE,
	"CZC":   CZCE,
	"CZCE":  CZCE,
	"DCE":   DCE,
	"GFE":   GFEX,
	"GFEX":  GFEX,
}

// NormalizeExchange maps an alias (case-insensitive) to its canonical
// Exchange, or returns ErrUnknownExchange.
func NormalizeExchange(alias string) (Exchange, error) {
	ex, ok := aliases[strings.ToUpper(strings.TrimSpace(alias))]
	if !ok {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownExchange, alias)
	}
	return ex, nil
}

// IsEquity reports whether ex belongs to the equity/index subset
// {CFFEX, SSE, SZSE}.
func (ex Exchange) IsEquity() bool {
	switch ex {
	case CFFEX, SSE, SZSE:
		return true
	default:
		return false
	}
}

// IsCommodity reports whether ex belongs to the commodity subset
// {SHFE, CZCE, DCE, GFEX}.
func (ex Exchange) IsCommodity() bool {
	switch ex {
	case SHFE, CZCE, DCE, GFEX:
		return true
	default:
		return false
	}
}

// PositionType is {Future, Option}; Stock is carried for future extension
// but never produced by the code parser.
type PositionType string

const (
	Future PositionType = "Future"
	Option PositionType = "Option"
	Stock  PositionType = "Stock"
)

// LongShort is the side of a split leg.
type LongShort string

const (
	Long  LongShort = "long"
	Short LongShort = "short"
)

// CallPut is an option's right.
type CallPut string

const (
	Call CallPut = "call"
	Put  CallPut = "put"
)

// cffexVarieties, shfeVarieties and dceVarieties enumerate the known
// variety codes per exchange, resolved from the original taxonomy; CZCE
// and GFEX are intentionally left without a closed list (preserved TODO).
var cffexVarieties = set("IF", "IC", "IM", "IH", "IO", "MO", "HO")

var shfeVarieties = set(
	"CU", "BC", "AL", "ZN", "PB", "NI", "SN", "AO", "AD", "AU", "AG",
	"RB", "WR", "HC", "SS", "SC", "LU", "FU", "BU", "BR", "RU", "NR",
	"SP", "OP", "EC",
)

var dceVarieties = set(
	"A", "B", "M", "Y", "P", "C", "CS", "RR", "JD", "LH", "FB", "BB",
	"LG", "JM", "J", "I", "L", "V", "PP", "EG", "EB", "PG", "BZ",
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// KnownVariety reports whether variety is in the closed list for ex, when
// one exists. CZCE and GFEX have no closed list and always report true.
func KnownVariety(ex Exchange, variety string) bool {
	switch ex {
	case CFFEX:
		_, ok := cffexVarieties[variety]
		return ok
	case SHFE:
		_, ok := shfeVarieties[variety]
		return ok
	case DCE:
		_, ok := dceVarieties[variety]
		return ok
	default:
		return true
	}
}

// ETFVariety is the synthetic variety tag used for SSE/SZSE ETF options,
// which have no underlying future variety.
const ETFVariety = "ETF"

// commodityPair is an unordered pair of variety codes.
type commodityPair struct{ a, b string }

// dceCommodityPairs is the closed, fully enumerated DCE inter-commodity
// spread eligibility set.
var dceCommodityPairs = []commodityPair{
	{"A", "B"}, {"A", "M"}, {"B", "M"},
	{"Y", "P"},
	{"C", "CS"},
	{"JM", "J"}, {"JM", "I"}, {"J", "I"},
	{"L", "V"}, {"L", "PP"}, {"L", "EG"}, {"L", "EB"}, {"L", "PG"},
	{"V", "PP"}, {"V", "EG"}, {"V", "EB"}, {"V", "PG"},
	{"PP", "EG"}, {"PP", "EB"}, {"PP", "PG"},
	{"EG", "EB"}, {"EG", "PG"},
	{"EB", "PG"},
}

// IsCommodityPair reports whether (v1, v2) is an eligible inter-commodity
// spread pair for ex. CZCE's set is empty per the source's own TODO;
// exchanges other than CZCE/DCE never report true.
func IsCommodityPair(ex Exchange, v1, v2 string) bool {
	if ex != DCE {
		return false
	}
	for _, p := range dceCommodityPairs {
		if (p.a == v1 && p.b == v2) || (p.a == v2 && p.b == v1) {
			return true
		}
	}
	return false
}
