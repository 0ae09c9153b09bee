// Command marginrisk runs the full combination-optimization and
// stress-test pipeline over a portfolio of Chinese futures and options
// positions, the same flag-parse-then-run-once shape the reference
// codebase's cmd/option-replay/main.go uses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/contactkeval/marginrisk/internal/data"
	"github.com/contactkeval/marginrisk/internal/logger"
	"github.com/contactkeval/marginrisk/internal/optimizer"
	"github.com/contactkeval/marginrisk/internal/position"
	"github.com/contactkeval/marginrisk/internal/report"
	"github.com/contactkeval/marginrisk/internal/stress"
	"github.com/contactkeval/marginrisk/internal/taxonomy"
)

func main() {
	configPath := flag.String("config", "marginrisk.json", "path to JSON run configuration")
	outDir := flag.String("out", "", "output directory (overrides config's output_dir)")
	verbosity := flag.Int("v", int(logger.Info), "log verbosity (0=error,1=info,2=debug,3=trace)")
	flag.Parse()
	logger.SetVerbosity(*verbosity)

	cfgBytes, err := os.ReadFile(*configPath)
	if err != nil {
		logger.Errorf("reading config: %v", err)
		os.Exit(1)
	}
	var cfg data.RunConfig
	if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
		logger.Errorf("invalid config: %v", err)
		os.Exit(1)
	}
	cfg.Defaults()
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	var prov data.Provider = data.NewLocalTableProvider(cfg.TableDir)
	if apiKey := os.Getenv("MASSIVE_API_KEY"); apiKey != "" {
		logger.Infof("live quote overlay enabled")
		prov = data.NewMassiveQuoteOverlay(prov, apiKey)
	}

	if err := run(prov, cfg); err != nil {
		logger.Errorf("run failed: %v", err)
		os.Exit(1)
	}
}

func run(prov data.Provider, cfg data.RunConfig) error {
	ctx := context.Background()

	holdings, err := prov.LoadHoldings(ctx)
	if err != nil {
		return err
	}
	stockFutures, err := prov.LoadFutureQuotes(ctx, data.Equity)
	if err != nil {
		return err
	}
	commodityFutures, err := prov.LoadFutureQuotes(ctx, data.Commodity)
	if err != nil {
		return err
	}
	stockOptions, err := prov.LoadOptionQuotes(ctx, data.Equity)
	if err != nil {
		return err
	}
	commodityOptions, err := prov.LoadOptionQuotes(ctx, data.Commodity)
	if err != nil {
		return err
	}
	marginRatios, err := prov.LoadMarginRatios(ctx)
	if err != nil {
		return err
	}
	cov, err := prov.LoadCovariance(ctx)
	if err != nil {
		return err
	}
	drift, err := prov.LoadDrift(ctx)
	if err != nil {
		return err
	}
	accounts, err := prov.LoadAccounts(ctx)
	if err != nil {
		return err
	}
	supplement, err := prov.LoadSupplement(ctx)
	if err != nil {
		return err
	}

	md := position.MarketData{
		StockFutures:     index(stockFutures),
		CommodityFutures: index(commodityFutures),
		StockOptions:     indexOpt(stockOptions),
		CommodityOptions: indexOpt(commodityOptions),
	}

	legs, rowErrs, err := position.Normalize(holdings, marginRatios, md, cfg.StrictMode)
	if err != nil {
		return err
	}
	for _, e := range rowErrs {
		logger.Errorf("row skipped: %v", e)
	}
	logger.Infof("normalized %d legs from %d holding rows", len(legs), len(holdings))

	// byAccount holds every leg for an account regardless of exchange:
	// VaR and scenario stress run over the account's whole book.
	byAccount := map[string][]position.Leg{}
	// byExchangeAccount groups (exchange, account) pairs, the same key
	// the source material's margin_optimizer.py groups by before
	// dispatching _process_each_account(exchange): a sub-account with
	// legs on more than one exchange must have each exchange's legs
	// optimized (or netted) independently.
	type exAccount struct {
		Exchange taxonomy.Exchange
		Account  string
	}
	byExchangeAccount := map[exAccount][]position.Leg{}
	var exAccountOrder []exAccount
	for _, l := range legs {
		byAccount[l.Account] = append(byAccount[l.Account], l)
		key := exAccount{Exchange: l.Exchange, Account: l.Account}
		if _, ok := byExchangeAccount[key]; !ok {
			exAccountOrder = append(exAccountOrder, key)
		}
		byExchangeAccount[key] = append(byExchangeAccount[key], l)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	var holdingRows []report.HoldingRow
	for _, key := range exAccountOrder {
		isClose := false
		res, err := optimizer.Optimize(byExchangeAccount[key], isClose)
		if err != nil {
			logger.Errorw("optimize account failed: %v", []logger.Field{
				logger.F("account", key.Account), logger.F("exchange", key.Exchange),
			}, err)
			continue
		}
		holdingRows = append(holdingRows, report.BuildHoldingRows(key.Account, string(key.Exchange), res)...)
	}

	var varRows []report.VaRRow
	cellsByAccount := map[string][]stress.ScenarioCell{}
	var accountOrder []string
	for account, accLegs := range byAccount {
		accountOrder = append(accountOrder, account)
		equity := accounts[account]
		seed := cfg.Seed
		varResult, err := stress.RunVaR(stress.AccountInput{
			Account: account, Legs: accLegs, Equity: equity, Supplement: supplement[account],
		}, *cov, drift, cfg.NStep, cfg.NPath, cfg.Percentile, &seed)
		if err != nil {
			logger.Errorw("stress VaR failed: %v", []logger.Field{logger.F("account", account)}, err)
			continue
		}
		varRows = append(varRows, report.BuildVaRRows([]stress.VaRResult{varResult})...)

		cellsByAccount[account] = stress.RunScenario(stress.AccountInput{Account: account, Legs: accLegs, Equity: equity}, cfg.RGrid, cfg.TargetRiskRatio)
	}
	riskRatioPivot, supplementPivot := report.BuildScenarioPivots(accountOrder, cellsByAccount)

	if err := report.WriteOptimizedHoldingJSON(holdingRows, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteOptimizedHoldingCSV(holdingRows, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteVaRReportJSON(varRows, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteVaRReportCSV(varRows, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteScenarioRiskRatioPivotJSON(riskRatioPivot, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteScenarioRiskRatioPivotCSV(riskRatioPivot, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteScenarioSupplementPivotJSON(supplementPivot, cfg.OutputDir); err != nil {
		return err
	}
	if err := report.WriteScenarioSupplementPivotCSV(supplementPivot, cfg.OutputDir); err != nil {
		return err
	}

	logger.Infof("wrote %d holding rows, %d VaR rows, %d scenario accounts to %s",
		len(holdingRows), len(varRows), len(accountOrder), cfg.OutputDir)
	return nil
}

func index(qs []position.FutureQuote) map[string]position.FutureQuote {
	out := make(map[string]position.FutureQuote, len(qs))
	for _, q := range qs {
		out[q.Code] = q
	}
	return out
}

func indexOpt(qs []position.OptionQuote) map[string]position.OptionQuote {
	out := make(map[string]position.OptionQuote, len(qs))
	for _, q := range qs {
		out[q.Code] = q
	}
	return out
}
