package models

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// StrategyKind identifies a strategy family in reports
type StrategyKind string

// Strategy kinds
const (
	StrategyMeanReversion StrategyKind = "Mean Reversion"
	StrategyMomentum      StrategyKind = "Momentum"
	StrategyCombined      StrategyKind = "Combined"
	StrategyBuyHold       StrategyKind = "Buy & Hold"
)

// AllStrategies lists the report rows produced per backtest, in report order
var AllStrategies = []StrategyKind{StrategyMeanReversion, StrategyMomentum, StrategyCombined, StrategyBuyHold}

// SweepParams is one parameter tuple of a grid sweep
type SweepParams struct {
	ZThreshold        float64 `json:"z_threshold" parquet:"z_threshold"`
	MomentumThreshold float64 `json:"momentum_threshold" parquet:"momentum_threshold"`
	CostRate          float64 `json:"cost_rate" parquet:"cost_rate"`
}

// String renders the tuple for logs and sort keys
func (p SweepParams) String() string {
	return fmt.Sprintf("z=%g mom=%g cost=%g", p.ZThreshold, p.MomentumThreshold, p.CostRate)
}

// MetricsReport is one row of backtest results. Undefined metrics are NaN.
type MetricsReport struct {
	Strategy          StrategyKind `json:"strategy"`
	Instrument        string       `json:"instrument,omitempty"`
	Params            SweepParams  `json:"params"`
	Sharpe            float64      `json:"sharpe"`
	Sortino           float64      `json:"sortino"`
	Volatility        float64      `json:"volatility"`
	CAGR              float64      `json:"cagr"`
	MaxDrawdown       float64      `json:"max_drawdown"`
	HitRatio          float64      `json:"hit_ratio"`
	Trades            int          `json:"trades"`
	AvgProfitPerTrade float64      `json:"avg_profit_per_trade"`
	Observations      int          `json:"observations"`
	// Baseline rows have no trades; sinks render "-" for trade columns.
	Baseline bool `json:"baseline"`
}

// Rounded returns a presentation copy: headline metrics to 2 decimal places,
// average profit per trade to 4.
func (r MetricsReport) Rounded() MetricsReport {
	out := r
	out.Sharpe = RoundTo(r.Sharpe, 2)
	out.Sortino = RoundTo(r.Sortino, 2)
	out.Volatility = RoundTo(r.Volatility, 2)
	out.CAGR = RoundTo(r.CAGR, 2)
	out.MaxDrawdown = RoundTo(r.MaxDrawdown, 2)
	out.HitRatio = RoundTo(r.HitRatio, 2)
	out.AvgProfitPerTrade = RoundTo(r.AvgProfitPerTrade, 4)
	return out
}

// RoundTo rounds half away from zero. NaN and infinities pass through.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// ReportColumns is the fixed tabular layout shared by every sink
var ReportColumns = []string{
	"Strategy", "Sharpe", "Sortino", "Volatility", "CAGR", "Max Drawdown", "Hit Ratio",
	"Trades", "Avg Profit/Trade", "Instrument", "Z Threshold", "Momentum Threshold", "Cost Rate",
}

// Cells renders the rounded row in ReportColumns order. Baseline rows report
// "-" for the trade columns.
func (r MetricsReport) Cells() []string {
	p := r.Rounded()
	trades, avg := strconv.Itoa(p.Trades), formatMetric(p.AvgProfitPerTrade, 4)
	if r.Baseline {
		trades, avg = "-", "-"
	}
	return []string{
		string(p.Strategy),
		formatMetric(p.Sharpe, 2),
		formatMetric(p.Sortino, 2),
		formatMetric(p.Volatility, 2),
		formatMetric(p.CAGR, 2),
		formatMetric(p.MaxDrawdown, 2),
		formatMetric(p.HitRatio, 2),
		trades,
		avg,
		p.Instrument,
		strconv.FormatFloat(p.Params.ZThreshold, 'f', -1, 64),
		strconv.FormatFloat(p.Params.MomentumThreshold, 'f', -1, 64),
		strconv.FormatFloat(p.Params.CostRate, 'f', -1, 64),
	}
}

func formatMetric(v float64, places int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', places, 64)
}
