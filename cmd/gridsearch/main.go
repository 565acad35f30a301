// Package main provides the grid sweep CLI and scheduled sweep daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/strategy-lab/internal/backtest"
	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/database"
	"github.com/yourusername/strategy-lab/internal/datasource"
	"github.com/yourusername/strategy-lab/internal/gridsearch"
	"github.com/yourusername/strategy-lab/internal/logger"
	"github.com/yourusername/strategy-lab/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	log        *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(runCmd, scheduleCmd)
}

var rootCmd = &cobra.Command{
	Use:     "gridsearch",
	Short:   "Sweep rule-based strategies over a parameter grid",
	Long:    `Backtests mean reversion, momentum and combined strategies for every parameter tuple and instrument, then reports the best configuration per instrument.`,
	Version: Version + " (" + GitCommit + ")",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one sweep and write the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if timeout := cfg.Grid.Timeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		_, err = app.Sweep(ctx)
		return err
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	secretsCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(secretsCtx, cfg); err != nil {
		return err
	}
	return config.Validate(cfg)
}

// app holds the wired dependencies of a sweep
type app struct {
	runner   *gridsearch.Runner
	grid     gridsearch.ParamGrid
	provider datasource.Provider
	sink     repository.ResultSink
	charts   *repository.ChartExporter
	audit    *logger.AuditLogger
	db       *database.DB
}

func newApp(ctx context.Context) (*app, error) {
	base, err := backtest.FromConfig(&cfg.Indicators, &cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	grid, err := gridsearch.GridFromConfig(&cfg.Grid)
	if err != nil {
		return nil, err
	}
	runner, err := gridsearch.NewRunner(base, log,
		gridsearch.WithWorkers(cfg.Grid.Workers),
		gridsearch.WithMinHistory(cfg.Grid.MinHistory),
	)
	if err != nil {
		return nil, err
	}
	provider, err := datasource.NewProvider(cfg.Data, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create data provider: %w", err)
	}

	a := &app{
		runner:   runner,
		grid:     grid,
		provider: provider,
		audit:    logger.NewAuditLogger(log),
	}
	if cfg.Output.Sink == "postgres" {
		a.db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}
	a.sink, err = repository.NewResultSink(cfg.Output, a.db, os.Stdout)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.Output.ChartsEnabled {
		a.charts = repository.NewChartExporter(cfg.Output.Directory)
	}

	log.WithFields(logrus.Fields{
		"provider": provider.Name(),
		"sink":     a.sink.Name(),
		"cells":    grid.Size(),
		"universe": len(cfg.Data.Universe),
		"workers":  runner.Workers(),
	}).Info("Sweep configured")
	return a, nil
}

// Sweep runs the grid over the configured universe and writes whatever
// finished, even when the sweep was interrupted.
func (a *app) Sweep(ctx context.Context) (*gridsearch.Result, error) {
	start, end, err := cfg.Data.DateRange()
	if err != nil {
		return nil, err
	}

	result, sweepErr := a.runner.Run(ctx, a.grid, cfg.Data.Universe, a.provider, start, end)
	if result == nil {
		return nil, sweepErr
	}
	if sweepErr != nil {
		log.WithError(sweepErr).Warn("Sweep interrupted, saving finished cells")
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sweepID := result.SweepID.String()
	if err := a.sink.SaveResults(saveCtx, result.SweepID, result.Rows); err != nil {
		return result, fmt.Errorf("failed to save results: %w", err)
	}
	a.audit.LogResultsSaved(sweepID, a.sink.Name(), len(result.Rows))

	best := result.BestByInstrument()
	for _, row := range best {
		a.audit.LogBestSelected(sweepID, row)
	}
	fmt.Print(backtest.GenerateConsoleReport("Best configuration per instrument", best))

	correlation := result.Correlation()
	if len(correlation.Names) > 1 {
		fmt.Print(backtest.GenerateCorrelationReport(correlation))
	}
	if a.charts != nil {
		a.exportCharts(result, correlation)
	}
	return result, sweepErr
}

func (a *app) exportCharts(result *gridsearch.Result, correlation backtest.CorrelationMatrix) {
	name := "sweep-" + result.SweepID.String()
	path, err := a.charts.ExportEquity(name+"-combined", "Combined strategy equity", result.Curves)
	if err != nil {
		log.WithError(err).Error("Failed to export equity chart")
		return
	}
	a.audit.LogChartsExported(path, len(result.Curves))

	if _, err := a.charts.ExportCorrelation(name+"-correlation", "Combined strategy correlation", correlation); err != nil {
		log.WithError(err).Error("Failed to export correlation chart")
	}
}

// Close releases the database pool
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
