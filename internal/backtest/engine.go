// Package backtest runs the indicator → signal → position → return → metrics
// pipeline over one price series.
package backtest

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/strategy-lab/internal/indicators"
	"github.com/yourusername/strategy-lab/internal/models"
	"github.com/yourusername/strategy-lab/internal/strategy"
)

// StrategyRun is the per-strategy output of one backtest
type StrategyRun struct {
	Kind      models.StrategyKind
	Signals   []strategy.Signal
	Positions []strategy.Position
	Returns   Returns
	Equity    EquityCurve
	Metrics   Metrics
}

// Result is the full output of one backtest. Runs are in report order.
type Result struct {
	Instrument string
	Params     models.SweepParams
	Frame      *indicators.Frame
	Runs       []*StrategyRun
}

// Run returns the run for a strategy kind, or nil
func (r *Result) Run(kind models.StrategyKind) *StrategyRun {
	for _, run := range r.Runs {
		if run.Kind == kind {
			return run
		}
	}
	return nil
}

// Reports returns one full-precision report row per strategy
func (r *Result) Reports() []models.MetricsReport {
	reports := make([]models.MetricsReport, 0, len(r.Runs))
	for _, run := range r.Runs {
		reports = append(reports, run.Metrics.ToReport(run.Kind, r.Instrument, r.Params))
	}
	return reports
}

// Curves returns the named equity curves for charting
func (r *Result) Curves() map[string]EquityCurve {
	curves := make(map[string]EquityCurve, len(r.Runs))
	for _, run := range r.Runs {
		curves[string(run.Kind)] = run.Equity
	}
	return curves
}

// Engine orchestrates backtesting runs
type Engine struct {
	config Config
	logger *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{config: cfg, logger: logger}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Logger returns the engine logger
func (e *Engine) Logger() *logrus.Logger {
	return e.logger
}

// Run executes the full pipeline synchronously. It is deterministic and has
// no side effects beyond debug logging.
func (e *Engine) Run(series models.PriceSeries) (*Result, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	frame, err := indicators.Compute(series, e.config.Windows)
	if err != nil {
		return nil, fmt.Errorf("failed to compute indicators: %w", err)
	}

	forward := ForwardReturns(frame.Price)
	runs := make([]*StrategyRun, 0, len(models.AllStrategies))
	for _, s := range e.config.strategies() {
		runs = append(runs, e.runSignals(s, frame, forward))
	}
	combined := strategy.CombinePositions(runs[0].Positions, runs[1].Positions)
	runs = append(runs,
		e.runStrategy(models.StrategyCombined, nil, combined, frame.Times, forward),
		buyAndHold(frame.Times, forward),
	)

	result := &Result{
		Instrument: series.Symbol,
		Params:     e.config.Params(),
		Frame:      frame,
		Runs:       runs,
	}

	e.logger.WithFields(logrus.Fields{
		"instrument":  series.Symbol,
		"periods":     series.Len(),
		"params":      result.Params.String(),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("Backtest completed")

	return result, nil
}

// runSignals generates a family's signals and tracks them into positions
func (e *Engine) runSignals(s strategy.Strategy, frame *indicators.Frame, forward []float64) *StrategyRun {
	e.logger.WithFields(logrus.Fields(s.GetParameters())).
		WithField("strategy", s.Name()).
		Debug("Generating signals")
	signals := s.Generate(frame)
	return e.runStrategy(s.Name(), signals, strategy.TrackPositions(signals), frame.Times, forward)
}

// runStrategy turns held positions into returns, equity and metrics. Signals
// are nil for the combined strategy, which is built from positions.
func (e *Engine) runStrategy(kind models.StrategyKind, signals []strategy.Signal, positions []strategy.Position, times []time.Time, forward []float64) *StrategyRun {
	exposure := strategy.Float(positions)
	returns := ComputeReturns(exposure, forward, e.config.CostRate)
	return &StrategyRun{
		Kind:      kind,
		Signals:   signals,
		Positions: positions,
		Returns:   returns,
		Equity:    NewEquityCurve(times, returns.Net),
		Metrics:   CalculateMetrics(returns.Net, exposure),
	}
}

// buyAndHold treats the raw forward returns as the net series: always long,
// no costs, no trades. It is invested from the first period, so unlike the
// strategies (flat through warm-up) its curve starts at 1+forward[0], not 1.0.
func buyAndHold(times []time.Time, forward []float64) *StrategyRun {
	return &StrategyRun{
		Kind:    models.StrategyBuyHold,
		Returns: Returns{Forward: forward, Gross: forward, Net: forward},
		Equity:  NewEquityCurve(times, forward),
		Metrics: CalculateMetrics(forward, nil),
	}
}
