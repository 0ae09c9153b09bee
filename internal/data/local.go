package data

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/contactkeval/marginrisk/internal/logger"
	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/stress"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

var validate = validator.New()

// LocalTableProvider reads the six opaque tables from a directory of
// CSV and JSON files, the canonical input path of every run.
type LocalTableProvider struct {
	Dir string

	HoldingsFile         string
	StockFutureFile      string
	CommodityFutureFile  string
	StockOptionFile      string
	CommodityOptionFile  string
	MarginRatioFile      string
	CovarianceFile       string
	DriftFile            string
	AccountsFile         string
	SupplementFile       string
}

// NewLocalTableProvider fills in the default file names for a table
// directory laid out the way the fixture tree under
// cmd/marginrisk/testdata/fixture is.
func NewLocalTableProvider(dir string) *LocalTableProvider {
	return &LocalTableProvider{
		Dir:                 dir,
		HoldingsFile:        "holdings.csv",
		StockFutureFile:     "stock_futures.csv",
		CommodityFutureFile: "commodity_futures.csv",
		StockOptionFile:     "stock_options.csv",
		CommodityOptionFile: "commodity_options.csv",
		MarginRatioFile:     "margin_ratios.csv",
		CovarianceFile:      "covariance.json",
		DriftFile:           "drift.csv",
		AccountsFile:        "accounts.csv",
		SupplementFile:      "supplement.csv",
	}
}

func (p *LocalTableProvider) path(name string) string { return filepath.Join(p.Dir, name) }

func (p *LocalTableProvider) LoadHoldings(ctx context.Context) ([]position.RawPosition, error) {
	rows, err := readCSV(p.path(p.HoldingsFile))
	if err != nil {
		return nil, err
	}
	out := make([]position.RawPosition, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		long, _ := strconv.Atoi(strings.TrimSpace(row[2]))
		short, _ := strconv.Atoi(strings.TrimSpace(row[3]))
		rp := position.RawPosition{
			Account:       strings.TrimSpace(row[0]),
			Code:          strings.TrimSpace(row[1]),
			GrossLongQty:  long,
			GrossShortQty: short,
		}
		if err := validate.Struct(rp); err != nil {
			logger.Errorw("skipping invalid holding row: %v", []logger.Field{logger.F("account", rp.Account), logger.F("code", rp.Code)}, err)
			continue
		}
		out = append(out, rp)
	}
	logger.Debugf("loaded %d holding rows from %s", len(out), p.HoldingsFile)
	return out, nil
}

func (p *LocalTableProvider) LoadFutureQuotes(ctx context.Context, class AssetClass) ([]position.FutureQuote, error) {
	file := p.StockFutureFile
	if class == Commodity {
		file = p.CommodityFutureFile
	}
	rows, err := readCSV(p.path(file))
	if err != nil {
		return nil, err
	}
	out := make([]position.FutureQuote, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		mult, _ := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		close, _ := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		lastTrade, _ := time.Parse("2006-01-02", strings.TrimSpace(row[3]))
		fq := position.FutureQuote{
			Code: strings.TrimSpace(row[0]), Multiplier: mult, ClosePrice: close, LastTradeDate: lastTrade,
		}
		if err := validate.Struct(fq); err != nil {
			logger.Errorw("skipping invalid future quote: %v", []logger.Field{logger.F("code", fq.Code)}, err)
			continue
		}
		out = append(out, fq)
	}
	return out, nil
}

func (p *LocalTableProvider) LoadOptionQuotes(ctx context.Context, class AssetClass) ([]position.OptionQuote, error) {
	file := p.StockOptionFile
	if class == Commodity {
		file = p.CommodityOptionFile
	}
	rows, err := readCSV(p.path(file))
	if err != nil {
		return nil, err
	}
	out := make([]position.OptionQuote, 0, len(rows))
	for _, row := range rows {
		if len(row) < 9 {
			continue
		}
		cp := taxonomy.Call
		if strings.EqualFold(strings.TrimSpace(row[2]), "put") {
			cp = taxonomy.Put
		}
		strike, _ := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		mult, _ := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		close, _ := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		udlPx, _ := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		delta, _ := strconv.ParseFloat(strings.TrimSpace(row[7]), 64)
		gamma, _ := strconv.ParseFloat(strings.TrimSpace(row[8]), 64)
		var lastTrade time.Time
		if len(row) > 9 {
			lastTrade, _ = time.Parse("2006-01-02", strings.TrimSpace(row[9]))
		}
		oq := position.OptionQuote{
			Code: strings.TrimSpace(row[0]), UnderlyingCode: strings.TrimSpace(row[1]),
			CallPut: cp, StrikePrice: strike, Multiplier: mult, ClosePrice: close,
			UnderlyingPrice: udlPx, Delta: delta, Gamma: gamma, LastTradeDate: lastTrade,
		}
		if err := validate.Struct(oq); err != nil {
			logger.Errorw("skipping invalid option quote: %v", []logger.Field{logger.F("code", oq.Code), logger.F("underlying", oq.UnderlyingCode)}, err)
			continue
		}
		out = append(out, oq)
	}
	return out, nil
}

func (p *LocalTableProvider) LoadMarginRatios(ctx context.Context) (map[string]float64, error) {
	rows, err := readCSV(p.path(p.MarginRatioFile))
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(row[0]))] = v
	}
	return out, nil
}

func (p *LocalTableProvider) LoadCovariance(ctx context.Context) (*stress.CovarianceTable, error) {
	b, err := os.ReadFile(p.path(p.CovarianceFile))
	if err != nil {
		return nil, fmt.Errorf("read covariance table: %w", err)
	}
	var cov stress.CovarianceTable
	if err := json.Unmarshal(b, &cov); err != nil {
		return nil, fmt.Errorf("decode covariance table: %w", err)
	}
	return &cov, nil
}

func (p *LocalTableProvider) LoadDrift(ctx context.Context) (map[string]float64, error) {
	rows, err := readCSV(p.path(p.DriftFile))
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(row[0])] = v
	}
	return out, nil
}

func (p *LocalTableProvider) LoadAccounts(ctx context.Context) (map[string]float64, error) {
	rows, err := readCSV(p.path(p.AccountsFile))
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(row[0])] = v
	}
	return out, nil
}

func (p *LocalTableProvider) LoadSupplement(ctx context.Context) (map[string][]float64, error) {
	rows, err := readCSV(p.path(p.SupplementFile))
	if err != nil {
		return nil, err
	}
	out := map[string][]float64{}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		vals := make([]float64, 0, len(row)-1)
		for _, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				continue
			}
			vals = append(vals, v)
		}
		out[strings.TrimSpace(row[0])] = vals
	}
	return out, nil
}

// readCSV reads a CSV file, skipping a header row. A missing file yields
// an empty table rather than an error, since not every run needs every
// opaque table (e.g. a futures-only portfolio has no option files).
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}
