package position

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/contactkeval/marginrisk/internal/errs"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

var (
	cffexFutureRe = regexp.MustCompile(`^(IF|IC|IM|IH)[0-9]{4}$`)
	cffexOptionRe = regexp.MustCompile(`^(IO|MO|HO)[0-9]{4}.+$`)

	etfOption1Re = regexp.MustCompile(`^[0-9]{8}$`)
	etfOption2Re = regexp.MustCompile(`^[0-9]{6}(C|P|-C-|-P-).+$`)

	commodityFutureRe = regexp.MustCompile(`^([A-Za-z]+)[0-9]{4}$`)
	commodityOptionRe = regexp.MustCompile(`^([A-Za-z]+)[0-9]{4}(C|P|-C-|-P-).+$`)
)

// ParsedCode is the result of classifying a position code.
type ParsedCode struct {
	Exchange taxonomy.Exchange
	Type     taxonomy.PositionType
	Variety  string
}

// ParseCode splits a position code of the form "<symbol>.<alias>" and
// classifies the symbol into (exchange, position-type, variety) per the
// regex contracts of §4.1. It fails with errs.ErrUnknownExchange if the
// alias doesn't normalize, or errs.ErrInvalidCode if the symbol matches
// no regex for that exchange.
func ParseCode(code string) (ParsedCode, error) {
	parts := strings.SplitN(code, ".", 2)
	if len(parts) != 2 {
		return ParsedCode{}, fmt.Errorf("%w: %q has no exchange suffix", errs.ErrInvalidCode, code)
	}
	symbol, alias := parts[0], parts[1]

	exchange, err := taxonomy.NormalizeExchange(alias)
	if err != nil {
		return ParsedCode{}, err
	}

	switch exchange {
	case taxonomy.CFFEX:
		if m := cffexFutureRe.FindStringSubmatch(symbol); m != nil {
			return ParsedCode{Exchange: exchange, Type: taxonomy.Future, Variety: m[1]}, nil
		}
		if m := cffexOptionRe.FindStringSubmatch(symbol); m != nil {
			return ParsedCode{Exchange: exchange, Type: taxonomy.Option, Variety: m[1]}, nil
		}

	case taxonomy.SSE, taxonomy.SZSE:
		if etfOption1Re.MatchString(symbol) || etfOption2Re.MatchString(symbol) {
			return ParsedCode{Exchange: exchange, Type: taxonomy.Option, Variety: taxonomy.ETFVariety}, nil
		}

	case taxonomy.SHFE, taxonomy.CZCE, taxonomy.DCE, taxonomy.GFEX:
		if m := commodityFutureRe.FindStringSubmatch(symbol); m != nil {
			return ParsedCode{Exchange: exchange, Type: taxonomy.Future, Variety: strings.ToUpper(m[1])}, nil
		}
		if m := commodityOptionRe.FindStringSubmatch(symbol); m != nil {
			return ParsedCode{Exchange: exchange, Type: taxonomy.Option, Variety: strings.ToUpper(m[1])}, nil
		}
	}

	return ParsedCode{}, fmt.Errorf("%w: %q", errs.ErrInvalidCode, code)
}
