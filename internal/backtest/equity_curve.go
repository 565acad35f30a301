package backtest

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// EquityPoint represents a point in the equity curve
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// EquityCurve represents a time-series of equity points
type EquityCurve []EquityPoint

// NewEquityCurve compounds (1 + net) from 1.0. Undefined net returns add
// nothing here so the curve stays defined at every period; metrics still
// exclude those periods.
func NewEquityCurve(times []time.Time, net []float64) EquityCurve {
	curve := make(EquityCurve, len(net))
	value := 1.0
	peak := math.Inf(-1)
	for i, r := range net {
		if !math.IsNaN(r) {
			value *= 1 + r
		}
		if value > peak {
			peak = value
		}
		point := EquityPoint{Value: value, Drawdown: peak - value}
		if i < len(times) {
			point.Time = times[i]
		}
		curve[i] = point
	}
	return curve
}

// Values returns the equity column
func (e EquityCurve) Values() []float64 {
	out := make([]float64, len(e))
	for i, p := range e {
		out[i] = p.Value
	}
	return out
}

// Final returns the last equity value, or 1.0 for an empty curve
func (e EquityCurve) Final() float64 {
	if len(e) == 0 {
		return 1.0
	}
	return e[len(e)-1].Value
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("time,value,drawdown\n")
	for _, point := range e {
		buf.WriteString(point.Time.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
