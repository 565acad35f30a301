package backtest

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/strategy-lab/internal/models"
)

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03}
	want := average(returns) / sampleStddev(returns) * math.Sqrt(252)
	if got := calculateSharpeRatio(returns); math.Abs(got-want) > 1e-12 {
		t.Fatalf("sharpe = %v, want %v", got, want)
	}
	if math.Abs(sampleStddev(returns)-math.Sqrt(8.75e-4/3)) > 1e-12 {
		t.Fatalf("expected sample std with n-1 denominator")
	}
}

func TestSharpeRatioUndefined(t *testing.T) {
	if !math.IsNaN(calculateSharpeRatio([]float64{0.25, 0.25, 0.25})) {
		t.Fatalf("expected NaN for zero variance")
	}
	if !math.IsNaN(calculateSharpeRatio([]float64{0.01})) {
		t.Fatalf("expected NaN for a single observation")
	}
}

func TestSortinoNeedsTwoLosses(t *testing.T) {
	if !math.IsNaN(calculateSortinoRatio([]float64{0.01, -0.02, 0.03})) {
		t.Fatalf("expected NaN with a single negative return")
	}
	if s := calculateSortinoRatio([]float64{0.02, -0.01, -0.03, 0.04}); math.IsNaN(s) || s <= 0 {
		t.Fatalf("expected positive sortino, got %v", s)
	}
}

func TestMaxDrawdownInEquityUnits(t *testing.T) {
	got := calculateMaxDrawdown([]float64{0.1, -0.5, 0.2})
	if math.Abs(got-0.55) > 1e-12 {
		t.Fatalf("max drawdown = %v, want 0.55", got)
	}
	if calculateMaxDrawdown([]float64{0.01, 0.02}) != 0 {
		t.Fatalf("expected zero drawdown for a rising curve")
	}
}

func TestCAGR(t *testing.T) {
	returns := make([]float64, 252)
	for i := range returns {
		returns[i] = 0.001
	}
	want := math.Pow(1.001, 252) - 1
	if got := calculateCAGR(returns); math.Abs(got-want) > 1e-12 {
		t.Fatalf("cagr = %v, want %v", got, want)
	}
}

func TestCalculateMetricsCountsTrades(t *testing.T) {
	net := []float64{0, 0.01, -0.02, 0.03, math.NaN()}
	positions := []float64{0, 1, 1, -1, 0}
	m := CalculateMetrics(net, positions)
	if m.Trades != 3 {
		t.Fatalf("expected 3 trades, got %d", m.Trades)
	}
	// trade periods 1 and 3 are defined; period 4 is NaN
	if math.Abs(m.AvgProfitPerTrade-0.02) > 1e-12 {
		t.Fatalf("avg profit = %v, want 0.02", m.AvgProfitPerTrade)
	}
	if m.Observations != 4 {
		t.Fatalf("expected NaN period excluded, got %d observations", m.Observations)
	}
	if math.Abs(m.HitRatio-0.5) > 1e-12 {
		t.Fatalf("hit ratio = %v, want 0.5", m.HitRatio)
	}
}

func TestCalculateMetricsBaseline(t *testing.T) {
	m := CalculateMetrics([]float64{0.01, -0.01, 0.02}, nil)
	if m.Trades != 0 || !math.IsNaN(m.AvgProfitPerTrade) {
		t.Fatalf("baseline should have no trade statistics")
	}
	report := m.ToReport(models.StrategyBuyHold, "SPY", models.SweepParams{})
	if !report.Baseline {
		t.Fatalf("expected baseline report")
	}
	cells := report.Cells()
	if cells[7] != "-" || cells[8] != "-" {
		t.Fatalf("expected dashes for baseline trade columns, got %v", cells[7:9])
	}
}

func TestCalculateMetricsEmpty(t *testing.T) {
	m := CalculateMetrics([]float64{math.NaN()}, []float64{0})
	for name, v := range map[string]float64{
		"sharpe": m.SharpeRatio, "cagr": m.CAGR, "drawdown": m.MaxDrawdown, "hit": m.HitRatio,
	} {
		if !math.IsNaN(v) {
			t.Fatalf("%s: expected NaN, got %v", name, v)
		}
	}
}

func TestMetricsToJSONWritesNull(t *testing.T) {
	m := CalculateMetrics([]float64{0.01}, nil)
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(m.ToJSON()), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["sharpe_ratio"] != nil {
		t.Fatalf("expected null sharpe, got %v", decoded["sharpe_ratio"])
	}
}

func TestCorrelate(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := func(offset int, values ...float64) EquityCurve {
		out := make(EquityCurve, len(values))
		for i, v := range values {
			out[i] = EquityPoint{Time: start.AddDate(0, 0, i+offset), Value: v}
		}
		return out
	}
	m := Correlate(map[string]EquityCurve{
		"A": curve(0, 1, 2, 3, 4),
		"B": curve(0, 2, 4, 6, 8),
		"C": curve(1, 9, 8, 7, 6),
	})
	if m.Periods != 3 {
		t.Fatalf("expected 3 common periods, got %d", m.Periods)
	}
	if math.Abs(m.Get("A", "B")-1) > 1e-12 {
		t.Fatalf("expected perfect correlation, got %v", m.Get("A", "B"))
	}
	if math.Abs(m.Get("A", "C")+1) > 1e-12 {
		t.Fatalf("expected perfect anti-correlation, got %v", m.Get("A", "C"))
	}
	if !math.IsNaN(m.Get("A", "missing")) {
		t.Fatalf("expected NaN for unknown curve")
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	reports := []models.MetricsReport{
		CalculateMetrics([]float64{0.01, -0.01, 0.02}, []float64{1, 1, 0}).ToReport(models.StrategyMomentum, "SPY", models.SweepParams{ZThreshold: 1}),
		CalculateMetrics([]float64{0.01, -0.01, 0.02}, nil).ToReport(models.StrategyBuyHold, "SPY", models.SweepParams{ZThreshold: 1}),
	}
	out := GenerateConsoleReport("SPY", reports)
	for _, want := range []string{"Sharpe", "Momentum", "Buy & Hold", "SPY"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 6 {
		t.Fatalf("expected title, rule, header, separator and 2 rows, got %d lines", len(lines))
	}
}
