package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/yourusername/strategy-lab/internal/models"
)

func buildSeries(symbol string, prices []float64) models.PriceSeries {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{Time: start.AddDate(0, 0, i), Price: p, Volume: math.NaN()}
	}
	return models.PriceSeries{Symbol: symbol, Points: points}
}

func constantPrices(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func risingPrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

// wavePrices oscillates around a slow drift so both strategies trade.
func wavePrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.05*float64(i) + 8*math.Sin(float64(i)/6)
	}
	return out
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	return engine
}

func TestRunReportsEveryStrategy(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	result, err := engine.Run(buildSeries("SPY", wavePrices(300)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reports := result.Reports()
	if len(reports) != len(models.AllStrategies) {
		t.Fatalf("expected %d reports, got %d", len(models.AllStrategies), len(reports))
	}
	for i, kind := range models.AllStrategies {
		if reports[i].Strategy != kind {
			t.Fatalf("report %d is %s, want %s", i, reports[i].Strategy, kind)
		}
		if reports[i].Instrument != "SPY" {
			t.Fatalf("expected instrument SPY, got %s", reports[i].Instrument)
		}
	}
	if !reports[3].Baseline {
		t.Fatalf("buy and hold should be the baseline row")
	}
	if len(result.Curves()) != 4 {
		t.Fatalf("expected 4 equity curves")
	}
}

func TestRunConstantSeries(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	result, err := engine.Run(buildSeries("FLAT", constantPrices(300, 100)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, run := range result.Runs {
		for i, p := range run.Positions {
			if p != 0 {
				t.Fatalf("%s: expected flat position at %d, got %d", run.Kind, i, p)
			}
		}
		if !math.IsNaN(run.Metrics.SharpeRatio) {
			t.Fatalf("%s: expected NaN sharpe for zero variance, got %v", run.Kind, run.Metrics.SharpeRatio)
		}
		if run.Metrics.MaxDrawdown != 0 {
			t.Fatalf("%s: expected zero drawdown, got %v", run.Kind, run.Metrics.MaxDrawdown)
		}
		if run.Equity.Final() != 1.0 {
			t.Fatalf("%s: expected flat equity, got %v", run.Kind, run.Equity.Final())
		}
	}
	if trades := result.Run(models.StrategyMeanReversion).Metrics.Trades; trades != 0 {
		t.Fatalf("expected no trades, got %d", trades)
	}
}

func TestRunRisingSeriesMomentumStaysLong(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	result, err := engine.Run(buildSeries("UP", risingPrices(300)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mom := result.Run(models.StrategyMomentum)
	if mom.Positions[4] != 0 || mom.Positions[5] != 1 {
		t.Fatalf("expected momentum to enter long once the lag fills, got %v %v", mom.Positions[4], mom.Positions[5])
	}
	if mom.Positions[299] != 1 {
		t.Fatalf("expected long position carried to the end")
	}
	if mom.Metrics.Trades != 1 {
		t.Fatalf("expected a single trade, got %d", mom.Metrics.Trades)
	}
	if mom.Metrics.CAGR <= 0 || mom.Metrics.MaxDrawdown != 0 {
		t.Fatalf("unexpected momentum metrics %+v", mom.Metrics)
	}

	hold := result.Run(models.StrategyBuyHold)
	if hold.Metrics.Trades != 0 || !math.IsNaN(hold.Metrics.AvgProfitPerTrade) {
		t.Fatalf("baseline should report no trades")
	}
	if hold.Metrics.HitRatio != 1 {
		t.Fatalf("expected every baseline period to gain, got %v", hold.Metrics.HitRatio)
	}
}

func TestRunEquityStartsAtOne(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	result, err := engine.Run(buildSeries("WAVE", wavePrices(300)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, kind := range []models.StrategyKind{models.StrategyMeanReversion, models.StrategyMomentum, models.StrategyCombined} {
		run := result.Run(kind)
		if run.Equity[0].Value != 1.0 {
			t.Fatalf("%s: expected equity to start at 1.0, got %v", kind, run.Equity[0].Value)
		}
		if run.Metrics.MaxDrawdown < 0 {
			t.Fatalf("%s: negative drawdown %v", kind, run.Metrics.MaxDrawdown)
		}
	}

	// The baseline holds from the first period, so its curve already
	// includes the first forward return.
	baseline := result.Run(models.StrategyBuyHold)
	want := 1 + baseline.Returns.Forward[0]
	if baseline.Equity[0].Value != want {
		t.Fatalf("buy & hold: expected first equity %v, got %v", want, baseline.Equity[0].Value)
	}
}

func TestConfigStrategiesCarryParams(t *testing.T) {
	cfg := DefaultConfig().WithParams(models.SweepParams{ZThreshold: 1.5, MomentumThreshold: 0.03})
	cfg.MomentumFilters.MACD = true

	families := cfg.strategies()
	if len(families) != 2 {
		t.Fatalf("expected 2 signal families, got %d", len(families))
	}
	if families[0].Name() != models.StrategyMeanReversion || families[1].Name() != models.StrategyMomentum {
		t.Fatalf("unexpected order: %s, %s", families[0].Name(), families[1].Name())
	}
	if got := families[0].GetParameters()["z_threshold"]; got != 1.5 {
		t.Fatalf("expected z threshold 1.5, got %v", got)
	}
	params := families[1].GetParameters()
	if params["momentum_threshold"] != 0.03 || params["macd_filter"] != true {
		t.Fatalf("unexpected momentum parameters %v", params)
	}
}

func TestRunCombinedAgreesOnly(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	result, err := engine.Run(buildSeries("WAVE", wavePrices(300)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr := result.Run(models.StrategyMeanReversion).Positions
	mom := result.Run(models.StrategyMomentum).Positions
	comb := result.Run(models.StrategyCombined).Positions
	for i := range comb {
		if comb[i] != 0 && (comb[i] != mr[i] || comb[i] != mom[i]) {
			t.Fatalf("combined position %d at %d without agreement (%d, %d)", comb[i], i, mr[i], mom[i])
		}
		if comb[i] == 0 && mr[i] == mom[i] && mr[i] != 0 {
			t.Fatalf("agreeing positions dropped at %d", i)
		}
	}
}

func TestRunHasNoLookAhead(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	prices := wavePrices(300)
	full, err := engine.Run(buildSeries("WAVE", prices))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prefix, err := engine.Run(buildSeries("WAVE", prices[:250]))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, kind := range []models.StrategyKind{models.StrategyMeanReversion, models.StrategyMomentum, models.StrategyCombined} {
		a, b := full.Run(kind).Positions, prefix.Run(kind).Positions
		for i := range b {
			if a[i] != b[i] {
				t.Fatalf("%s: position at %d depends on future prices", kind, i)
			}
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	series := buildSeries("WAVE", wavePrices(300))
	first, err := engine.Run(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Run(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, b := first.Reports(), second.Reports()
	for i := range a {
		if !sameFloat(a[i].Sharpe, b[i].Sharpe) || !sameFloat(a[i].CAGR, b[i].CAGR) || a[i].Trades != b[i].Trades {
			t.Fatalf("run %d differs between identical inputs", i)
		}
	}
}

func TestRunCostsReduceReturns(t *testing.T) {
	series := buildSeries("WAVE", wavePrices(300))
	free, err := newTestEngine(t, DefaultConfig()).Run(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := DefaultConfig()
	cfg.CostRate = 0.001
	costly, err := newTestEngine(t, cfg).Run(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kind := models.StrategyMomentum
	if free.Run(kind).Metrics.Trades == 0 {
		t.Fatalf("expected momentum to trade on the wave series")
	}
	if costly.Run(kind).Equity.Final() >= free.Run(kind).Equity.Final() {
		t.Fatalf("expected costs to lower final equity")
	}
	if costly.Run(models.StrategyBuyHold).Equity.Final() != free.Run(models.StrategyBuyHold).Equity.Final() {
		t.Fatalf("baseline must not pay costs")
	}
}

func TestRunRejectsInvalidSeries(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	if _, err := engine.Run(models.PriceSeries{Symbol: "EMPTY"}); err == nil {
		t.Fatalf("expected error for empty series")
	}
	bad := buildSeries("BAD", []float64{100, -1, 102})
	if _, err := engine.Run(bad); err == nil {
		t.Fatalf("expected error for non-positive price")
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CostRate = -0.5
	if _, err := NewEngine(cfg, nil); err == nil {
		t.Fatalf("expected error for negative cost rate")
	}
}

func TestForwardReturns(t *testing.T) {
	out := ForwardReturns([]float64{100, 110, 99})
	if math.Abs(out[0]-0.1) > 1e-12 || math.Abs(out[1]+0.1) > 1e-12 {
		t.Fatalf("unexpected forward returns %v", out)
	}
	if !math.IsNaN(out[2]) {
		t.Fatalf("expected NaN for the last period")
	}
}

func TestComputeReturnsChargesPositionChanges(t *testing.T) {
	r := ComputeReturns([]float64{1, 1, -1, 0}, []float64{0.01, 0.02, 0.01, math.NaN()}, 0.001)
	wantCost := []float64{0.001, 0, 0.002, 0.001}
	for i, w := range wantCost {
		if math.Abs(r.Cost[i]-w) > 1e-12 {
			t.Fatalf("cost[%d] = %v, want %v", i, r.Cost[i], w)
		}
	}
	if math.Abs(r.Net[2]-(-0.012)) > 1e-12 {
		t.Fatalf("unexpected net %v", r.Net[2])
	}
	if !math.IsNaN(r.Net[3]) {
		t.Fatalf("expected NaN net where the forward return is undefined")
	}
}

func TestEquityCurveSkipsUndefined(t *testing.T) {
	curve := NewEquityCurve(nil, []float64{0.1, math.NaN(), -0.5})
	if math.Abs(curve[1].Value-1.1) > 1e-12 {
		t.Fatalf("NaN period should leave equity unchanged, got %v", curve[1].Value)
	}
	if math.Abs(curve[2].Drawdown-0.55) > 1e-12 {
		t.Fatalf("unexpected drawdown %v", curve[2].Drawdown)
	}
}
