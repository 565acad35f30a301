package gridsearch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/yourusername/strategy-lab/internal/backtest"
	"github.com/yourusername/strategy-lab/internal/config"
	"github.com/yourusername/strategy-lab/internal/datasource"
	"github.com/yourusername/strategy-lab/internal/models"
)

func waveSeries(symbol string, n int, phase float64) models.PriceSeries {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, n)
	for i := range points {
		price := 100 + 0.05*float64(i) + 8*math.Sin(float64(i)/6+phase)
		points[i] = models.PricePoint{Time: start.AddDate(0, 0, i), Price: price, Volume: math.NaN()}
	}
	return models.PriceSeries{Symbol: symbol, Points: points}
}

func testGrid() ParamGrid {
	return ParamGrid{
		ZThresholds:        []float64{1.0, 1.5},
		MomentumThresholds: []float64{0.01, 0.02},
		CostRates:          []float64{0.001},
	}
}

func newTestRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	log, _ := test.NewNullLogger()
	r, err := NewRunner(backtest.DefaultConfig(), log, opts...)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return r
}

func TestGridCellsStableOrder(t *testing.T) {
	cells := testGrid().Cells()
	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}
	want := []models.SweepParams{
		{ZThreshold: 1.0, MomentumThreshold: 0.01, CostRate: 0.001},
		{ZThreshold: 1.0, MomentumThreshold: 0.02, CostRate: 0.001},
		{ZThreshold: 1.5, MomentumThreshold: 0.01, CostRate: 0.001},
		{ZThreshold: 1.5, MomentumThreshold: 0.02, CostRate: 0.001},
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Fatalf("cell %d: expected %v, got %v", i, want[i], cells[i])
		}
	}
}

func TestGridFromConfig(t *testing.T) {
	grid, err := GridFromConfig(&config.GridConfig{
		ZThresholds:        []float64{1},
		MomentumThresholds: []float64{0.02, 0.05},
		CostRates:          []float64{0, 0.001, 0.002},
	})
	if err != nil {
		t.Fatalf("GridFromConfig failed: %v", err)
	}
	if grid.Size() != 6 {
		t.Fatalf("expected 6 cells, got %d", grid.Size())
	}

	if _, err := GridFromConfig(&config.GridConfig{ZThresholds: []float64{1}}); err == nil {
		t.Fatal("expected error for empty axes")
	}
}

func TestNewRunnerRejectsShortMinHistory(t *testing.T) {
	if _, err := NewRunner(backtest.DefaultConfig(), nil, WithMinHistory(50)); err == nil {
		t.Fatal("expected error when min history is below the largest window")
	}
}

func TestRunSeriesProducesAllRows(t *testing.T) {
	r := newTestRunner(t, WithWorkers(3))
	series := map[string]models.PriceSeries{
		"AAA": waveSeries("AAA", 400, 0),
		"BBB": waveSeries("BBB", 400, 1.3),
	}

	result, err := r.RunSeries(context.Background(), testGrid(), series)
	if err != nil {
		t.Fatalf("RunSeries failed: %v", err)
	}

	if len(result.Rows) != 32 {
		t.Fatalf("expected 32 rows, got %d", len(result.Rows))
	}
	completed, skipped, failed := result.Counts()
	if completed != 8 || skipped != 0 || failed != 0 {
		t.Fatalf("unexpected counts: completed=%d skipped=%d failed=%d", completed, skipped, failed)
	}

	best := result.BestByInstrument()
	if len(best) != 2 {
		t.Fatalf("expected 2 best rows, got %d", len(best))
	}
	if best[0].Instrument != "AAA" || best[1].Instrument != "BBB" {
		t.Fatalf("best rows not ordered by instrument: %s, %s", best[0].Instrument, best[1].Instrument)
	}

	baselines := 0
	for _, row := range result.Rows {
		if row.Baseline {
			baselines++
			if row.Strategy != models.StrategyBuyHold {
				t.Fatalf("baseline row has strategy %s", row.Strategy)
			}
		}
	}
	if baselines != 8 {
		t.Fatalf("expected 8 baseline rows, got %d", baselines)
	}

	if len(result.Curves) != 2 {
		t.Fatalf("expected a combined curve per instrument, got %d", len(result.Curves))
	}
	corr := result.Correlation()
	if corr.Get("AAA", "AAA") != 1 {
		t.Fatalf("expected unit diagonal, got %f", corr.Get("AAA", "AAA"))
	}
}

func TestRunSeriesIsDeterministic(t *testing.T) {
	series := map[string]models.PriceSeries{
		"AAA": waveSeries("AAA", 300, 0),
		"BBB": waveSeries("BBB", 300, 2),
	}

	first, err := newTestRunner(t, WithWorkers(4)).RunSeries(context.Background(), testGrid(), series)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := newTestRunner(t, WithWorkers(1)).RunSeries(context.Background(), testGrid(), series)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(first.Rows), len(second.Rows))
	}
	for i := range first.Rows {
		a, b := first.Rows[i], second.Rows[i]
		if a.Instrument != b.Instrument || a.Strategy != b.Strategy || a.Params != b.Params {
			t.Fatalf("row %d identity differs", i)
		}
		if math.Float64bits(a.Sharpe) != math.Float64bits(b.Sharpe) || a.Trades != b.Trades {
			t.Fatalf("row %d metrics differ", i)
		}
	}
}

func TestRunSeriesSkipsShortHistory(t *testing.T) {
	r := newTestRunner(t)
	series := map[string]models.PriceSeries{
		"LONG":  waveSeries("LONG", 300, 0),
		"SHORT": waveSeries("SHORT", 150, 0),
	}

	result, err := r.RunSeries(context.Background(), testGrid(), series)
	if err != nil {
		t.Fatalf("RunSeries failed: %v", err)
	}

	completed, skipped, _ := result.Counts()
	if completed != 4 || skipped != 4 {
		t.Fatalf("expected 4 completed and 4 skipped, got %d and %d", completed, skipped)
	}
	for _, o := range result.Outcomes {
		if o.Instrument == "SHORT" && !errors.Is(o.Err, models.ErrInsufficientHistory) {
			t.Fatalf("expected insufficient history, got %v", o.Err)
		}
	}
	if len(result.Rows) != 16 {
		t.Fatalf("expected 16 rows, got %d", len(result.Rows))
	}
	if best := result.BestByInstrument(); len(best) != 1 || best[0].Instrument != "LONG" {
		t.Fatalf("expected only LONG in best rows, got %v", best)
	}
}

func TestRunSeriesIsolatesFailures(t *testing.T) {
	r := newTestRunner(t)
	grid := ParamGrid{
		ZThresholds:        []float64{1},
		MomentumThresholds: []float64{0.02},
		CostRates:          []float64{0, 0.5},
	}

	result, err := r.RunSeries(context.Background(), grid, map[string]models.PriceSeries{
		"AAA": waveSeries("AAA", 300, 0),
	})
	if err != nil {
		t.Fatalf("RunSeries failed: %v", err)
	}

	completed, _, failed := result.Counts()
	if completed != 1 || failed != 1 {
		t.Fatalf("expected 1 completed and 1 failed, got %d and %d", completed, failed)
	}
	failures := result.Failures()
	if failures[0].Params.CostRate != 0.5 || failures[0].Err == nil {
		t.Fatalf("unexpected failure outcome: %+v", failures[0])
	}
	if len(result.Rows) != 4 {
		t.Fatalf("expected 4 rows from the healthy cell, got %d", len(result.Rows))
	}
}

func TestRunSeriesRecoversPanics(t *testing.T) {
	log, hook := test.NewNullLogger()
	r, err := NewRunner(backtest.DefaultConfig(), log)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	r.backtest = func(cfg backtest.Config, series models.PriceSeries, l *logrus.Logger) (*backtest.Result, error) {
		if series.Symbol == "BAD" {
			panic("corrupt frame")
		}
		return runBacktest(cfg, series, l)
	}

	result, err := r.RunSeries(context.Background(), testGrid(), map[string]models.PriceSeries{
		"BAD":  waveSeries("BAD", 300, 0),
		"GOOD": waveSeries("GOOD", 300, 0),
	})
	if err != nil {
		t.Fatalf("RunSeries failed: %v", err)
	}

	completed, _, failed := result.Counts()
	if completed != 4 || failed != 4 {
		t.Fatalf("expected 4 completed and 4 failed, got %d and %d", completed, failed)
	}

	logged := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Data["instrument"] == "BAD" {
			logged++
		}
	}
	if logged != 4 {
		t.Fatalf("expected 4 failure log entries, got %d", logged)
	}
}

func TestRunSeriesStopsOnCancel(t *testing.T) {
	r := newTestRunner(t, WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.backtest = func(cfg backtest.Config, series models.PriceSeries, l *logrus.Logger) (*backtest.Result, error) {
		cancel()
		return runBacktest(cfg, series, l)
	}

	result, err := r.RunSeries(ctx, testGrid(), map[string]models.PriceSeries{
		"AAA": waveSeries("AAA", 300, 0),
		"BBB": waveSeries("BBB", 300, 1),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || len(result.Outcomes) != 1 {
		t.Fatalf("expected exactly the first cell to finish, got %+v", result)
	}
	if len(result.Rows) != 4 {
		t.Fatalf("expected 4 rows from the finished cell, got %d", len(result.Rows))
	}
}

type fakeProvider struct {
	series map[string]models.PriceSeries
	errs   map[string]error
	err    error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchSeries(_ context.Context, symbol string, _, _ time.Time) (models.PriceSeries, error) {
	if f.err != nil {
		return models.PriceSeries{}, f.err
	}
	if err, ok := f.errs[symbol]; ok {
		return models.PriceSeries{}, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return models.PriceSeries{}, datasource.NewDataSourceError("fake", datasource.ErrCodeUnavailable, "no prices for "+symbol, datasource.ErrDataUnavailable)
	}
	return s, nil
}

func TestRunDropsUnavailableInstruments(t *testing.T) {
	r := newTestRunner(t)
	provider := &fakeProvider{series: map[string]models.PriceSeries{
		"AAA": waveSeries("AAA", 300, 0),
	}}
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := r.Run(context.Background(), testGrid(), []string{"AAA", "ZZZ"}, provider, start, start.AddDate(2, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Dropped) != 1 || result.Dropped[0] != "ZZZ" {
		t.Fatalf("expected ZZZ to be dropped, got %v", result.Dropped)
	}
	if len(result.Rows) != 16 {
		t.Fatalf("expected 16 rows, got %d", len(result.Rows))
	}
}

func TestRunDropsInstrumentsThatFailToFetch(t *testing.T) {
	r := newTestRunner(t)
	provider := &fakeProvider{
		series: map[string]models.PriceSeries{"AAA": waveSeries("AAA", 300, 0)},
		errs: map[string]error{
			"BAD": datasource.NewDataSourceError("fake", datasource.ErrCodeServerError, "bad gateway", nil),
			"ODD": datasource.NewDataSourceError("fake", datasource.ErrCodeInvalidData, "invalid series for ODD", models.ErrVolumeMismatch),
		},
	}
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := r.Run(context.Background(), testGrid(), []string{"AAA", "BAD", "ODD"}, provider, start, start.AddDate(2, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Dropped) != 2 || result.Dropped[0] != "BAD" || result.Dropped[1] != "ODD" {
		t.Fatalf("expected BAD and ODD to be dropped, got %v", result.Dropped)
	}
	if len(result.Rows) != 16 {
		t.Fatalf("expected 16 rows from AAA, got %d", len(result.Rows))
	}
}

func writePriceFile(t *testing.T, dir, symbol string, series models.PriceSeries, blankAt int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,close\n")
	for i, p := range series.Points {
		price := strconv.FormatFloat(p.Price, 'f', 6, 64)
		if i == blankAt {
			price = ""
		}
		fmt.Fprintf(&b, "%s,%s\n", p.Time.Format("2006-01-02"), price)
	}
	if err := os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(b.String()), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", symbol, err)
	}
}

func TestRunKeepsInstrumentWithBlankCloseMidSeries(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAA", waveSeries("AAA", 300, 0), -1)
	writePriceFile(t, dir, "BBB", waveSeries("BBB", 300, 0), 150)
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := newTestRunner(t).Run(context.Background(), testGrid(), []string{"AAA", "BBB"}, datasource.NewCSVSource(dir), start, start.AddDate(2, 0, 0))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Dropped) != 0 {
		t.Fatalf("expected no dropped instruments, got %v", result.Dropped)
	}
	if len(result.Rows) != 32 {
		t.Fatalf("expected 32 rows, got %d", len(result.Rows))
	}
	for _, row := range result.Rows {
		if row.Instrument == "BBB" && row.Strategy == models.StrategyBuyHold && row.Observations != 298 {
			t.Fatalf("expected the blank close to be dropped, got %d observations", row.Observations)
		}
	}
}

func TestRunAbortsOnFetchError(t *testing.T) {
	r := newTestRunner(t)
	provider := &fakeProvider{err: datasource.NewDataSourceError("fake", datasource.ErrCodeAuthenticationFailed, "bad key", nil)}
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := r.Run(context.Background(), testGrid(), []string{"AAA"}, provider, start, start.AddDate(1, 0, 0)); err == nil {
		t.Fatal("expected fetch error to abort the sweep")
	}
}

func TestBestByInstrumentIgnoresNaN(t *testing.T) {
	low := models.SweepParams{ZThreshold: 1}
	high := models.SweepParams{ZThreshold: 2}
	rows := []models.MetricsReport{
		{Instrument: "AAA", Strategy: models.StrategyMomentum, Params: low, Sharpe: math.NaN()},
		{Instrument: "AAA", Strategy: models.StrategyMeanReversion, Params: high, Sharpe: 0.4},
		{Instrument: "AAA", Strategy: models.StrategyCombined, Params: low, Sharpe: 0.4},
		{Instrument: "AAA", Strategy: models.StrategyBuyHold, Params: low, Sharpe: -1},
		{Instrument: "BBB", Strategy: models.StrategyMomentum, Params: high, Sharpe: math.NaN()},
		{Instrument: "BBB", Strategy: models.StrategyMeanReversion, Params: high, Sharpe: math.NaN()},
	}

	best := BestByInstrument(rows)
	if len(best) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(best))
	}
	if best[0].Strategy != models.StrategyMeanReversion || best[0].Params != high {
		t.Fatalf("expected the earlier strategy to win the tie, got %s %v", best[0].Strategy, best[0].Params)
	}
	if best[1].Strategy != models.StrategyMeanReversion || !math.IsNaN(best[1].Sharpe) {
		t.Fatalf("expected the first row of an all-NaN instrument, got %s", best[1].Strategy)
	}
}
