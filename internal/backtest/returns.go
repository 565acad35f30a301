package backtest

import "math"

// Returns holds per-period return accounting as parallel columns
type Returns struct {
	Forward []float64
	Gross   []float64
	Cost    []float64
	Net     []float64
}

// ForwardReturns is the percentage move from t to t+1. The last period has no
// realized move and is NaN.
func ForwardReturns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := range prices {
		if i == len(prices)-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = prices[i+1]/prices[i] - 1
	}
	return out
}

// ComputeReturns applies positions decided at t to the move realized after t
// and charges |position change| * costRate, with an implicit flat position
// before the first period.
func ComputeReturns(positions, forward []float64, costRate float64) Returns {
	n := len(positions)
	r := Returns{
		Forward: forward,
		Gross:   make([]float64, n),
		Cost:    make([]float64, n),
		Net:     make([]float64, n),
	}
	prev := 0.0
	for i := 0; i < n; i++ {
		r.Gross[i] = positions[i] * forward[i]
		r.Cost[i] = math.Abs(positions[i]-prev) * costRate
		r.Net[i] = r.Gross[i] - r.Cost[i]
		prev = positions[i]
	}
	return r
}

// Defined drops NaN periods; metrics only ever see the realized returns.
func Defined(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
