package backtest

import (
	"encoding/json"
	"math"

	"github.com/yourusername/strategy-lab/internal/models"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics
const TradingDaysPerYear = 252

// Metrics represents backtest performance metrics at full precision.
// Undefined values are NaN.
type Metrics struct {
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	Volatility        float64 `json:"volatility"`
	CAGR              float64 `json:"cagr"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	HitRatio          float64 `json:"hit_ratio"`
	Trades            int     `json:"trades"`
	AvgProfitPerTrade float64 `json:"avg_profit_per_trade"`
	Observations      int     `json:"observations"`
}

// CalculateMetrics reduces a net return series to a risk/performance report.
// NaN periods are dropped before any statistic is taken. Trade statistics use
// positions; pass nil positions for a baseline with no trades.
func CalculateMetrics(net []float64, positions []float64) Metrics {
	returns := Defined(net)
	n := len(returns)
	annual := math.Sqrt(TradingDaysPerYear)

	m := Metrics{
		SharpeRatio:       calculateSharpeRatio(returns),
		SortinoRatio:      calculateSortinoRatio(returns),
		Volatility:        sampleStddev(returns) * annual,
		CAGR:              calculateCAGR(returns),
		MaxDrawdown:       calculateMaxDrawdown(returns),
		HitRatio:          calculateHitRatio(returns),
		AvgProfitPerTrade: math.NaN(),
		Observations:      n,
	}
	if positions != nil {
		m.Trades, m.AvgProfitPerTrade = calculateTradeStats(net, positions)
	}
	return m
}

// ToReport tags the metrics for tabular output
func (m Metrics) ToReport(kind models.StrategyKind, instrument string, params models.SweepParams) models.MetricsReport {
	return models.MetricsReport{
		Strategy:          kind,
		Instrument:        instrument,
		Params:            params,
		Sharpe:            m.SharpeRatio,
		Sortino:           m.SortinoRatio,
		Volatility:        m.Volatility,
		CAGR:              m.CAGR,
		MaxDrawdown:       m.MaxDrawdown,
		HitRatio:          m.HitRatio,
		Trades:            m.Trades,
		AvgProfitPerTrade: m.AvgProfitPerTrade,
		Observations:      m.Observations,
		Baseline:          kind == models.StrategyBuyHold,
	}
}

// ToJSON exports metrics to JSON. NaN is not representable in JSON and is
// written as null.
func (m Metrics) ToJSON() string {
	fields := map[string]interface{}{
		"sharpe_ratio":         jsonFloat(m.SharpeRatio),
		"sortino_ratio":        jsonFloat(m.SortinoRatio),
		"volatility":           jsonFloat(m.Volatility),
		"cagr":                 jsonFloat(m.CAGR),
		"max_drawdown":         jsonFloat(m.MaxDrawdown),
		"hit_ratio":            jsonFloat(m.HitRatio),
		"trades":               m.Trades,
		"avg_profit_per_trade": jsonFloat(m.AvgProfitPerTrade),
		"observations":         m.Observations,
	}
	data, _ := json.Marshal(fields)
	return string(data)
}

func jsonFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func calculateSharpeRatio(returns []float64) float64 {
	std := sampleStddev(returns)
	if math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return average(returns) / std * math.Sqrt(TradingDaysPerYear)
}

func calculateSortinoRatio(returns []float64) float64 {
	std := downsideStddev(returns)
	if math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return average(returns) / std * math.Sqrt(TradingDaysPerYear)
}

func calculateCAGR(returns []float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return math.Pow(growth, TradingDaysPerYear/float64(len(returns))) - 1
}

// calculateMaxDrawdown is the largest gap between the running peak of the
// compounded curve and the curve itself, in equity units.
func calculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	maxDD := 0.0
	equity := 1.0
	peak := math.Inf(-1)
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func calculateHitRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

// calculateTradeStats counts position changes (flat before the first period,
// as in the cost model) and averages the defined net return on those periods.
func calculateTradeStats(net, positions []float64) (int, float64) {
	trades := 0
	sum := 0.0
	counted := 0
	prev := 0.0
	for i, p := range positions {
		if p != prev {
			trades++
			if i < len(net) && !math.IsNaN(net[i]) {
				sum += net[i]
				counted++
			}
		}
		prev = p
	}
	if counted == 0 {
		return trades, math.NaN()
	}
	return trades, sum / float64(counted)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// sampleStddev uses the n-1 denominator; fewer than two values are undefined.
func sampleStddev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

func downsideStddev(values []float64) float64 {
	negatives := make([]float64, 0)
	for _, v := range values {
		if v < 0 {
			negatives = append(negatives, v)
		}
	}
	return sampleStddev(negatives)
}
