// Package main provides the entry point for the single-instrument backtest CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/strategy-lab/internal/backtest"
	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/datasource"
	"github.com/yourusername/strategy-lab/internal/logger"
	"github.com/yourusername/strategy-lab/internal/models"
	"github.com/yourusername/strategy-lab/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		symbol     = flag.String("symbol", "SPY", "Instrument to backtest")
		startDate  = flag.String("start-date", "", "Override start date (YYYY-MM-DD)")
		endDate    = flag.String("end-date", "", "Override end date (YYYY-MM-DD)")
		zThreshold = flag.Float64("z", -1, "Override mean reversion z threshold")
		momentum   = flag.Float64("momentum", -1, "Override momentum threshold")
		costRate   = flag.Float64("cost", -1, "Override cost rate per unit position change")
		csvOutput  = flag.String("csv", "", "Write the metrics table to this CSV file")
		charts     = flag.Bool("charts", false, "Export equity curves as JSON for charting")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	applyDateOverrides(cfg, *startDate, *endDate, log)

	btConfig := buildBacktestConfig(cfg, *zThreshold, *momentum, *costRate, log)
	engine, err := backtest.NewEngine(btConfig, log)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	series := fetchSeries(cfg, strings.ToUpper(*symbol), log)
	log.WithFields(logrus.Fields{
		"instrument": series.Symbol,
		"periods":    series.Len(),
		"params":     btConfig.Params().String(),
	}).Info("Starting backtest")

	result, err := engine.Run(series)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	title := fmt.Sprintf("%s backtest (%s)", series.Symbol, btConfig.Params())
	fmt.Print(backtest.GenerateConsoleReport(title, result.Reports()))

	if *csvOutput != "" {
		if err := backtest.GenerateCSVExport(result.Reports(), *csvOutput); err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
	}
	if *charts || cfg.Output.ChartsEnabled {
		exportCharts(cfg, result, log)
	}
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		logrus.Fatalf("Failed to load secrets: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func applyDateOverrides(cfg *config.Config, start, end string, log *logrus.Logger) {
	if start != "" {
		cfg.Data.StartDate = start
	}
	if end != "" {
		cfg.Data.EndDate = end
	}
	if _, _, err := cfg.Data.DateRange(); err != nil {
		log.Fatalf("Invalid date override: %v", err)
	}
}

func buildBacktestConfig(cfg *config.Config, z, momentum, cost float64, log *logrus.Logger) backtest.Config {
	btConfig, err := backtest.FromConfig(&cfg.Indicators, &cfg.Strategy)
	if err != nil {
		log.Fatalf("Invalid backtest config: %v", err)
	}
	params := btConfig.Params()
	if z >= 0 {
		params.ZThreshold = z
	}
	if momentum >= 0 {
		params.MomentumThreshold = momentum
	}
	if cost >= 0 {
		params.CostRate = cost
	}
	btConfig = btConfig.WithParams(params)
	if err := btConfig.Validate(); err != nil {
		log.Fatalf("Invalid parameter override: %v", err)
	}
	return btConfig
}

func fetchSeries(cfg *config.Config, symbol string, log *logrus.Logger) models.PriceSeries {
	provider, err := datasource.NewProvider(cfg.Data, log)
	if err != nil {
		log.Fatalf("Failed to create data provider: %v", err)
	}
	start, end, err := cfg.Data.DateRange()
	if err != nil {
		log.Fatalf("Invalid date range: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	series, err := provider.FetchSeries(ctx, symbol, start, end)
	if err != nil {
		log.Fatalf("Failed to fetch %s: %v", symbol, err)
	}
	return series
}

func exportCharts(cfg *config.Config, result *backtest.Result, log *logrus.Logger) {
	exporter := repository.NewChartExporter(filepath.Join(cfg.Output.Directory, "charts"))
	curves := result.Curves()
	path, err := exporter.ExportEquity(result.Instrument+"-equity", result.Instrument+" equity curves", curves)
	if err != nil {
		log.Errorf("Failed to export charts: %v", err)
		return
	}
	logger.NewAuditLogger(log).LogChartsExported(path, len(curves))
	if err := backtest.GenerateEquityExport(result.Run(models.StrategyCombined).Equity, filepath.Join(cfg.Output.Directory, result.Instrument+"-combined-equity.csv")); err != nil {
		log.Errorf("Failed to export combined equity: %v", err)
	}
	fmt.Printf("Charts written to %s\n", path)
}
