package gridsearch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/strategy-lab/internal/backtest"
	"github.com/yourusername/strategy-lab/internal/datasource"
	"github.com/yourusername/strategy-lab/internal/logger"
	"github.com/yourusername/strategy-lab/internal/metrics"
	"github.com/yourusername/strategy-lab/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultMinHistory is the fewest observations a cell runs on
const DefaultMinHistory = 210

type backtestFunc func(cfg backtest.Config, series models.PriceSeries, logger *logrus.Logger) (*backtest.Result, error)

func runBacktest(cfg backtest.Config, series models.PriceSeries, logger *logrus.Logger) (*backtest.Result, error) {
	engine, err := backtest.NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return engine.Run(series)
}

// Runner executes sweeps
type Runner struct {
	base       backtest.Config
	workers    int
	minHistory int
	logger     *logrus.Logger
	backtest   backtestFunc
}

// Option configures a Runner
type Option func(*Runner)

// WithWorkers bounds the number of concurrent cells. Values below 1 keep the
// default of one worker per CPU.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMinHistory sets the minimum series length. Values below 1 keep the
// default.
func WithMinHistory(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.minHistory = n
		}
	}
}

// NewRunner creates a runner. base supplies windows, filters and RSI bounds;
// the grid supplies the sweepable params of every cell.
func NewRunner(base backtest.Config, logger *logrus.Logger, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = logrus.New()
	}
	r := &Runner{
		base:       base,
		workers:    runtime.NumCPU(),
		minHistory: DefaultMinHistory,
		logger:     logger,
		backtest:   runBacktest,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := base.Windows.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base config: %w", err)
	}
	if largest := base.Windows.Largest(); r.minHistory < largest {
		return nil, fmt.Errorf("min history %d is shorter than the largest window %d", r.minHistory, largest)
	}
	return r, nil
}

// Workers returns the worker pool size
func (r *Runner) Workers() int { return r.workers }

// MinHistory returns the minimum series length
func (r *Runner) MinHistory() int { return r.minHistory }

// Run fetches every instrument of the universe and sweeps the grid over those
// with data. An instrument whose fetch fails is logged and dropped; only
// errors that would hit every instrument (rejected credentials, a cancelled
// context) abort the sweep.
func (r *Runner) Run(ctx context.Context, grid ParamGrid, universe []string, provider datasource.Provider, start, end time.Time) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	sweepID := uuid.New()
	sweepLog := logger.NewSweepLogger(r.logger, sweepID.String())

	series, dropped, err := r.fetchUniverse(ctx, sweepLog, universe, provider, start, end)
	if err != nil {
		return nil, err
	}
	result, err := r.sweep(ctx, sweepID, sweepLog, grid, series)
	if result != nil {
		result.Dropped = dropped
	}
	return result, err
}

func (r *Runner) fetchUniverse(ctx context.Context, sweepLog *logger.SweepLogger, universe []string, provider datasource.Provider, start, end time.Time) (map[string]models.PriceSeries, []string, error) {
	var (
		mu      sync.Mutex
		series  = make(map[string]models.PriceSeries, len(universe))
		dropped []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, symbol := range universe {
		symbol := symbol
		g.Go(func() error {
			s, err := provider.FetchSeries(gctx, symbol, start, end)
			if err != nil {
				if datasource.IsFatal(err) {
					return fmt.Errorf("failed to fetch %s: %w", symbol, err)
				}
				sweepLog.LogInstrumentUnavailable(symbol, err)
				mu.Lock()
				dropped = append(dropped, symbol)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			series[symbol] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Strings(dropped)
	return series, dropped, nil
}

// RunSeries sweeps the grid over already loaded series keyed by instrument.
// Cancelling ctx stops submitting cells; the cells finished so far are
// returned together with the context error.
func (r *Runner) RunSeries(ctx context.Context, grid ParamGrid, series map[string]models.PriceSeries) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	sweepID := uuid.New()
	return r.sweep(ctx, sweepID, logger.NewSweepLogger(r.logger, sweepID.String()), grid, series)
}

func (r *Runner) sweep(ctx context.Context, sweepID uuid.UUID, sweepLog *logger.SweepLogger, grid ParamGrid, series map[string]models.PriceSeries) (*Result, error) {
	started := time.Now()
	done := metrics.SweepStarted()
	defer done()

	result := &Result{
		SweepID: sweepID,
		Curves:  make(map[string]backtest.EquityCurve, len(series)),
	}

	instruments := make([]string, 0, len(series))
	for name := range series {
		instruments = append(instruments, name)
	}
	sort.Strings(instruments)
	cells := grid.Cells()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.workers)

submit:
	for i, params := range cells {
		for _, instrument := range instruments {
			if ctx.Err() != nil {
				break submit
			}
			params, instrument, keepCurve := params, instrument, i == 0
			s := series[instrument]
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				outcome, curve := r.runCell(instrument, s, params, keepCurve)
				r.report(sweepLog, outcome, s.Len())

				mu.Lock()
				defer mu.Unlock()
				result.Outcomes = append(result.Outcomes, outcome)
				result.Rows = append(result.Rows, outcome.Rows...)
				if curve != nil {
					result.Curves[instrument] = curve
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	sortOutcomes(result.Outcomes)
	sortRows(result.Rows)
	result.Duration = time.Since(started)

	for _, best := range result.BestByInstrument() {
		metrics.UpdateBestSharpe(best.Instrument, best.Sharpe)
	}
	metrics.RecordSweepDuration(result.Duration.Seconds())
	completed, skipped, failed := result.Counts()
	sweepLog.LogSweepSummary(completed, skipped, failed, len(result.Rows), result.Duration)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("sweep interrupted: %w", err)
	}
	return result, nil
}

// runCell runs one (params, instrument) backtest. A panic becomes a failed
// outcome so that one bad cell never stops the sweep.
func (r *Runner) runCell(instrument string, series models.PriceSeries, params models.SweepParams, keepCurve bool) (outcome CellOutcome, curve backtest.EquityCurve) {
	started := time.Now()
	outcome = CellOutcome{Instrument: instrument, Params: params}
	defer func() {
		if rec := recover(); rec != nil {
			outcome.Status = CellFailed
			outcome.Err = fmt.Errorf("panic: %v", rec)
			outcome.Rows = nil
			curve = nil
		}
		outcome.Duration = time.Since(started)
	}()

	if n := series.Len(); n < r.minHistory {
		outcome.Status = CellSkipped
		outcome.Err = fmt.Errorf("%w: %d observations, need %d", models.ErrInsufficientHistory, n, r.minHistory)
		return outcome, nil
	}

	res, err := r.backtest(r.base.WithParams(params), series, r.logger)
	if err != nil {
		outcome.Status = CellFailed
		outcome.Err = err
		return outcome, nil
	}

	outcome.Status = CellCompleted
	outcome.Rows = res.Reports()
	if keepCurve {
		if run := res.Run(models.StrategyCombined); run != nil {
			curve = run.Equity
		}
	}
	return outcome, curve
}

func (r *Runner) report(sweepLog *logger.SweepLogger, outcome CellOutcome, observations int) {
	switch outcome.Status {
	case CellCompleted:
		sweepLog.LogCellCompleted(outcome.Instrument, outcome.Params, len(outcome.Rows), outcome.Duration)
		metrics.RecordCell(metrics.StatusCompleted, outcome.Duration.Seconds())
	case CellSkipped:
		sweepLog.LogCellSkipped(outcome.Instrument, outcome.Params, observations, r.minHistory)
		metrics.RecordCell(metrics.StatusSkipped, outcome.Duration.Seconds())
	case CellFailed:
		sweepLog.LogCellFailed(outcome.Instrument, outcome.Params, outcome.Err)
		metrics.RecordCell(metrics.StatusFailed, outcome.Duration.Seconds())
	}
}
