// Package data is the opaque-table access layer: the Provider interface
// and its two implementations, a local CSV/JSON reader and a live-quote
// overlay that refreshes close/underlying prices ahead of margin calc.
package data

import (
	"context"

	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/stress"
)

// AssetClass distinguishes the equity and commodity halves of the
// futures/options quote tables.
type AssetClass int

const (
	Equity AssetClass = iota
	Commodity
)

// Provider supplies every opaque input table a run needs.
type Provider interface {
	LoadHoldings(ctx context.Context) ([]position.RawPosition, error)
	LoadFutureQuotes(ctx context.Context, class AssetClass) ([]position.FutureQuote, error)
	LoadOptionQuotes(ctx context.Context, class AssetClass) ([]position.OptionQuote, error)
	LoadMarginRatios(ctx context.Context) (map[string]float64, error)
	LoadCovariance(ctx context.Context) (*stress.CovarianceTable, error)
	LoadDrift(ctx context.Context) (map[string]float64, error)
	LoadAccounts(ctx context.Context) (map[string]float64, error)
	LoadSupplement(ctx context.Context) (map[string][]float64, error)
}
